package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides snapshot persistence on top of a pgx connection pool.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store. EnsureSchema must be called once before first use
// on a fresh database.
func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// schemaStatements create the snapshot tables. Composite primary keys give
// every entity natural upsert semantics; no surrogate IDs.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS candles (
		symbol  TEXT             NOT NULL,
		date    TEXT             NOT NULL,
		bucket  TEXT             NOT NULL,
		open    DOUBLE PRECISION NOT NULL,
		high    DOUBLE PRECISION NOT NULL,
		low     DOUBLE PRECISION NOT NULL,
		close   DOUBLE PRECISION NOT NULL,
		volume  BIGINT           NOT NULL,
		source  TEXT             NOT NULL,
		PRIMARY KEY (symbol, date, bucket)
	)`,
	`CREATE TABLE IF NOT EXISTS option_aggregates (
		symbol  TEXT             NOT NULL,
		date    TEXT             NOT NULL,
		bucket  TEXT             NOT NULL,
		expiry  TEXT             NOT NULL,
		call_oi BIGINT           NOT NULL,
		put_oi  BIGINT           NOT NULL,
		pcr     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, date, bucket)
	)`,
	`CREATE TABLE IF NOT EXISTS option_strikes (
		symbol      TEXT             NOT NULL,
		date        TEXT             NOT NULL,
		bucket      TEXT             NOT NULL,
		strike      DOUBLE PRECISION NOT NULL,
		call_oi     BIGINT           NOT NULL,
		put_oi      BIGINT           NOT NULL,
		call_oi_chg BIGINT           NOT NULL,
		put_oi_chg  BIGINT           NOT NULL,
		PRIMARY KEY (symbol, date, bucket, strike)
	)`,
	`CREATE TABLE IF NOT EXISTS market_breadth (
		date      TEXT    NOT NULL,
		bucket    TEXT    NOT NULL,
		advances  INTEGER NOT NULL,
		declines  INTEGER NOT NULL,
		unchanged INTEGER NOT NULL,
		total     INTEGER NOT NULL,
		source    TEXT    NOT NULL,
		PRIMARY KEY (date, bucket)
	)`,
	`CREATE TABLE IF NOT EXISTS pcr_history (
		symbol  TEXT             NOT NULL,
		date    TEXT             NOT NULL,
		pcr     DOUBLE PRECISION NOT NULL,
		call_oi BIGINT           NOT NULL,
		put_oi  BIGINT           NOT NULL,
		PRIMARY KEY (symbol, date)
	)`,
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
