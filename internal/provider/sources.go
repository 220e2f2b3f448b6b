package provider

import (
	"context"

	"github.com/maheshdev/marketbridge/internal/model"
)

// CandleSource fetches today's minute candles for one canonical symbol.
type CandleSource interface {
	Name() string
	Candles(ctx context.Context, symbol string) ([]model.Candle, error)
}

// BreadthSource fetches market-wide advance/decline counts. Implementations
// fill the counts and Source; the Orchestrator stamps date and bucket.
type BreadthSource interface {
	Name() string
	Breadth(ctx context.Context) (model.Breadth, error)
}

// ChainSource fetches the current option chain for one index. The
// Orchestrator stamps date, bucket and PCR.
type ChainSource interface {
	Name() string
	Chain(ctx context.Context, index string) (model.OptionSnapshot, error)
}

// SnapshotStore is the slice of the store the Orchestrator needs: persist
// fresh acquisitions and read back the latest values for carry-forward.
type SnapshotStore interface {
	UpsertCandles(ctx context.Context, candles []model.Candle) error
	UpsertBreadth(ctx context.Context, b model.Breadth) error
	UpsertOptionSnapshot(ctx context.Context, snap model.OptionSnapshot) error
	LatestOptionAggregate(ctx context.Context, symbol string) (model.OptionAggregate, bool, error)
	LatestOptionChain(ctx context.Context, symbol string) ([]model.OptionStrike, error)
	LatestBreadth(ctx context.Context) (model.Breadth, bool, error)
	SaveDailyPCR(ctx context.Context, rec model.DailyPCR) error
}
