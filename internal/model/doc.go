// Package model defines the core entities carried through the bridge:
// minute candles, option-chain snapshots, market breadth and put-call
// ratio values.
//
// Every entity is keyed by a composite tuple that includes the trading
// date and a minute-resolution time bucket (HH:MM). There are no
// surrogate IDs; re-ingesting an existing key overwrites the prior row.
package model
