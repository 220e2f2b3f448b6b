// Package store persists acquired market data snapshots to PostgreSQL.
//
// Every table is keyed by a composite primary key and written with
// upsert-on-conflict semantics, so retried acquisitions overwrite rather
// than duplicate. Multi-row writes (a candle batch, an option chain's
// strike list) are transactional: either the whole batch commits or none
// of it does.
//
// "Latest" reads order by (date DESC, bucket DESC) and return ok=false
// when no row exists, never an error.
package store
