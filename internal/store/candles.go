package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maheshdev/marketbridge/internal/model"
)

const upsertCandleSQL = `
	INSERT INTO candles (symbol, date, bucket, open, high, low, close, volume, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, date, bucket) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		source = EXCLUDED.source
`

// UpsertCandle writes one candle, replacing any existing row for its key.
func (s *Store) UpsertCandle(ctx context.Context, c model.Candle) error {
	_, err := s.db.Exec(ctx, upsertCandleSQL,
		c.Symbol, c.Date, c.Bucket, c.Open, c.High, c.Low, c.Close, c.Volume, c.Source)
	if err != nil {
		return fmt.Errorf("upsert candle %s %s %s: %w", c.Symbol, c.Date, c.Bucket, err)
	}
	return nil
}

// UpsertCandles writes a batch of candles in one transaction. Either every
// row commits or none do.
func (s *Store) UpsertCandles(ctx context.Context, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(upsertCandleSQL,
			c.Symbol, c.Date, c.Bucket, c.Open, c.High, c.Low, c.Close, c.Volume, c.Source)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin candle batch: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range candles {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert candle batch: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close candle batch: %w", err)
	}

	return tx.Commit(ctx)
}

// LatestCandle returns the most recent candle for a symbol across all days.
func (s *Store) LatestCandle(ctx context.Context, symbol string) (model.Candle, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT symbol, date, bucket, open, high, low, close, volume, source
		FROM candles
		WHERE symbol = $1
		ORDER BY date DESC, bucket DESC
		LIMIT 1`, symbol)

	var c model.Candle
	err := row.Scan(&c.Symbol, &c.Date, &c.Bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Candle{}, false, nil
	}
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("latest candle %s: %w", symbol, err)
	}
	return c, true, nil
}

// CandlesForDate returns every candle recorded for one trading day,
// ordered by ascending time bucket. The replay engine loads a full day
// through this query.
func (s *Store) CandlesForDate(ctx context.Context, date string) ([]model.Candle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, date, bucket, open, high, low, close, volume, source
		FROM candles
		WHERE date = $1
		ORDER BY bucket ASC, symbol ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("candles for date %s: %w", date, err)
	}
	defer rows.Close()

	var candles []model.Candle
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.Symbol, &c.Date, &c.Bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Source); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
