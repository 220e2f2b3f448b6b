// Package provider implements tiered acquisition of market data.
//
// Every data kind (candles, breadth, option chain) has an ordered list of
// sources. Tiers are tried in order until one returns a structurally valid,
// non-empty payload; a tier that errors, panics or returns an all-zero
// placeholder advances to the next. The Orchestrator wraps the tier runner
// with persistence and the per-kind total-failure policy: candles degrade
// to an empty result, option data and PCR carry the last stored value
// forward so consumers are never shown a blank mid-session.
package provider
