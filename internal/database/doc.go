// Package database provides connection pool management for the snapshot
// store's PostgreSQL instance.
//
// One pool serves every table: candles, option aggregates, option strikes,
// market breadth and daily PCR history.
package database
