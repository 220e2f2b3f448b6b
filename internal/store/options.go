package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maheshdev/marketbridge/internal/model"
)

// UpsertOptionSnapshot writes one minute's aggregate and its full strike
// list in a single transaction. A partial strike list never commits.
func (s *Store) UpsertOptionSnapshot(ctx context.Context, snap model.OptionSnapshot) error {
	agg := snap.Aggregate

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin option snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO option_aggregates (symbol, date, bucket, expiry, call_oi, put_oi, pcr)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date, bucket) DO UPDATE SET
			expiry = EXCLUDED.expiry,
			call_oi = EXCLUDED.call_oi,
			put_oi = EXCLUDED.put_oi,
			pcr = EXCLUDED.pcr`,
		agg.Symbol, agg.Date, agg.Bucket, agg.Expiry, agg.CallOI, agg.PutOI, agg.PCR)
	if err != nil {
		return fmt.Errorf("upsert option aggregate %s %s %s: %w", agg.Symbol, agg.Date, agg.Bucket, err)
	}

	batch := &pgx.Batch{}
	for _, strike := range snap.Strikes {
		batch.Queue(`
			INSERT INTO option_strikes (symbol, date, bucket, strike, call_oi, put_oi, call_oi_chg, put_oi_chg)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (symbol, date, bucket, strike) DO UPDATE SET
				call_oi = EXCLUDED.call_oi,
				put_oi = EXCLUDED.put_oi,
				call_oi_chg = EXCLUDED.call_oi_chg,
				put_oi_chg = EXCLUDED.put_oi_chg`,
			agg.Symbol, agg.Date, agg.Bucket, strike.Strike,
			strike.CallOI, strike.PutOI, strike.CallOIChg, strike.PutOIChg)
	}

	results := tx.SendBatch(ctx, batch)
	for range snap.Strikes {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upsert option strikes %s %s %s: %w", agg.Symbol, agg.Date, agg.Bucket, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close strike batch: %w", err)
	}

	return tx.Commit(ctx)
}

// LatestOptionAggregate returns the most recent per-minute aggregate for
// a symbol.
func (s *Store) LatestOptionAggregate(ctx context.Context, symbol string) (model.OptionAggregate, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT symbol, date, bucket, expiry, call_oi, put_oi, pcr
		FROM option_aggregates
		WHERE symbol = $1
		ORDER BY date DESC, bucket DESC
		LIMIT 1`, symbol)

	var agg model.OptionAggregate
	err := row.Scan(&agg.Symbol, &agg.Date, &agg.Bucket, &agg.Expiry, &agg.CallOI, &agg.PutOI, &agg.PCR)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.OptionAggregate{}, false, nil
	}
	if err != nil {
		return model.OptionAggregate{}, false, fmt.Errorf("latest option aggregate %s: %w", symbol, err)
	}
	return agg, true, nil
}

// LatestOptionChain returns the strike list recorded at the most recent
// (date, bucket) for a symbol, ordered by ascending strike. Returns an
// empty slice when the symbol has no recorded chain.
func (s *Store) LatestOptionChain(ctx context.Context, symbol string) ([]model.OptionStrike, error) {
	var date, bucket string
	err := s.db.QueryRow(ctx, `
		SELECT date, bucket
		FROM option_strikes
		WHERE symbol = $1
		ORDER BY date DESC, bucket DESC
		LIMIT 1`, symbol).Scan(&date, &bucket)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest chain timestamp %s: %w", symbol, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT symbol, date, bucket, strike, call_oi, put_oi, call_oi_chg, put_oi_chg
		FROM option_strikes
		WHERE symbol = $1 AND date = $2 AND bucket = $3
		ORDER BY strike ASC`, symbol, date, bucket)
	if err != nil {
		return nil, fmt.Errorf("latest chain %s: %w", symbol, err)
	}
	defer rows.Close()

	var strikes []model.OptionStrike
	for rows.Next() {
		var st model.OptionStrike
		if err := rows.Scan(&st.Symbol, &st.Date, &st.Bucket, &st.Strike, &st.CallOI, &st.PutOI, &st.CallOIChg, &st.PutOIChg); err != nil {
			return nil, fmt.Errorf("scan strike: %w", err)
		}
		strikes = append(strikes, st)
	}
	return strikes, rows.Err()
}

// OptionAggregatesForDate returns every per-minute aggregate recorded for
// a symbol on a date, in ascending bucket order.
func (s *Store) OptionAggregatesForDate(ctx context.Context, symbol, date string) ([]model.OptionAggregate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, date, bucket, expiry, call_oi, put_oi, pcr
		FROM option_aggregates
		WHERE symbol = $1 AND date = $2
		ORDER BY bucket ASC`, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("option aggregates %s %s: %w", symbol, date, err)
	}
	defer rows.Close()

	var aggs []model.OptionAggregate
	for rows.Next() {
		var agg model.OptionAggregate
		if err := rows.Scan(&agg.Symbol, &agg.Date, &agg.Bucket, &agg.Expiry, &agg.CallOI, &agg.PutOI, &agg.PCR); err != nil {
			return nil, fmt.Errorf("scan option aggregate: %w", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, rows.Err()
}

// OptionStrikesForDate returns every strike row recorded for a symbol on a
// date, ordered by bucket then ascending strike.
func (s *Store) OptionStrikesForDate(ctx context.Context, symbol, date string) ([]model.OptionStrike, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, date, bucket, strike, call_oi, put_oi, call_oi_chg, put_oi_chg
		FROM option_strikes
		WHERE symbol = $1 AND date = $2
		ORDER BY bucket ASC, strike ASC`, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("option strikes %s %s: %w", symbol, date, err)
	}
	defer rows.Close()

	var strikes []model.OptionStrike
	for rows.Next() {
		var st model.OptionStrike
		if err := rows.Scan(&st.Symbol, &st.Date, &st.Bucket, &st.Strike, &st.CallOI, &st.PutOI, &st.CallOIChg, &st.PutOIChg); err != nil {
			return nil, fmt.Errorf("scan strike: %w", err)
		}
		strikes = append(strikes, st)
	}
	return strikes, rows.Err()
}

// SaveDailyPCR records the end-of-day put-call ratio for a symbol.
func (s *Store) SaveDailyPCR(ctx context.Context, rec model.DailyPCR) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO pcr_history (symbol, date, pcr, call_oi, put_oi)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date) DO UPDATE SET
			pcr = EXCLUDED.pcr,
			call_oi = EXCLUDED.call_oi,
			put_oi = EXCLUDED.put_oi`,
		rec.Symbol, rec.Date, rec.PCR, rec.CallOI, rec.PutOI)
	if err != nil {
		return fmt.Errorf("save daily pcr %s %s: %w", rec.Symbol, rec.Date, err)
	}
	return nil
}

// PCRHistory returns up to dayLimit daily PCR records for a symbol,
// newest first.
func (s *Store) PCRHistory(ctx context.Context, symbol string, dayLimit int) ([]model.DailyPCR, error) {
	rows, err := s.db.Query(ctx, `
		SELECT symbol, date, pcr, call_oi, put_oi
		FROM pcr_history
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT $2`, symbol, dayLimit)
	if err != nil {
		return nil, fmt.Errorf("pcr history %s: %w", symbol, err)
	}
	defer rows.Close()

	var records []model.DailyPCR
	for rows.Next() {
		var rec model.DailyPCR
		if err := rows.Scan(&rec.Symbol, &rec.Date, &rec.PCR, &rec.CallOI, &rec.PutOI); err != nil {
			return nil, fmt.Errorf("scan pcr history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
