// Package feed implements the HTTP client used to pull market data from
// upstream providers: intraday candles, market breadth counts and option
// chain open interest.
//
// The client is shape-level: it understands the response formats the
// providers share, not any one vendor's session handling. Requests retry
// with exponential backoff and jitter; non-retryable statuses fail fast.
package feed
