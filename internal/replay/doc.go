// Package replay plays one trading day's persisted snapshots back over
// the same transport and message shapes the live bridge uses, so a
// consumer built against live broadcasts works unmodified against a
// backtest.
//
// Playback waits for the first subscriber, then walks minute buckets in
// ascending order at a configurable speed. Option chains and PCR are
// sparse in storage and carry forward between buckets.
package replay
