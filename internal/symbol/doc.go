// Package symbol resolves canonical trading symbols to provider instrument
// keys and back.
//
// The mapping table is built once per process from the provider's bulk
// instrument catalog (a gzipped JSON download). When the download fails the
// resolver falls back to the last successfully cached copy on disk; when
// both fail the resolver stays uninitialized and every lookup retries
// initialization lazily.
//
// Only equity and index segments are retained. The two broad-market indices
// get short canonical aliases (NIFTY, BANKNIFTY) that differ from their
// catalog trading names.
package symbol
