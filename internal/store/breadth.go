package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/maheshdev/marketbridge/internal/model"
)

// UpsertBreadth writes one minute's advance/decline counts.
func (s *Store) UpsertBreadth(ctx context.Context, b model.Breadth) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO market_breadth (date, bucket, advances, declines, unchanged, total, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date, bucket) DO UPDATE SET
			advances = EXCLUDED.advances,
			declines = EXCLUDED.declines,
			unchanged = EXCLUDED.unchanged,
			total = EXCLUDED.total,
			source = EXCLUDED.source`,
		b.Date, b.Bucket, b.Advances, b.Declines, b.Unchanged, b.Total, b.Source)
	if err != nil {
		return fmt.Errorf("upsert breadth %s %s: %w", b.Date, b.Bucket, err)
	}
	return nil
}

// LatestBreadth returns the most recent breadth row.
func (s *Store) LatestBreadth(ctx context.Context) (model.Breadth, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT date, bucket, advances, declines, unchanged, total, source
		FROM market_breadth
		ORDER BY date DESC, bucket DESC
		LIMIT 1`)

	var b model.Breadth
	err := row.Scan(&b.Date, &b.Bucket, &b.Advances, &b.Declines, &b.Unchanged, &b.Total, &b.Source)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Breadth{}, false, nil
	}
	if err != nil {
		return model.Breadth{}, false, fmt.Errorf("latest breadth: %w", err)
	}
	return b, true, nil
}
