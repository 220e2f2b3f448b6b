package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshdev/marketbridge/internal/metrics"
	"github.com/maheshdev/marketbridge/internal/model"
)

// eodBucket is the bucket from which an option fetch also records the
// day's closing PCR.
const eodBucket = "15:25"

// Chains holds the per-kind tier catalogs in priority order.
type Chains struct {
	Candles []CandleSource
	Breadth []BreadthSource
	Options []ChainSource
}

// Orchestrator runs the fallback chains and applies the persistence and
// total-failure policies per data kind.
type Orchestrator struct {
	store   SnapshotStore
	chains  Chains
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.RWMutex
	lastPCR map[string]float64
}

// NewOrchestrator creates an Orchestrator over the given chains. A nil
// metrics handle disables counting.
func NewOrchestrator(store SnapshotStore, chains Chains, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		chains:  chains,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		lastPCR: make(map[string]float64),
	}
}

// countAcquire records one acquisition outcome: the winning tier's name,
// or "failure" when every tier was exhausted.
func (o *Orchestrator) countAcquire(kind, outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.AcquireTotal.WithLabelValues(kind, outcome).Inc()
}

// validCandles rejects empty results and all-zero placeholder rows some
// providers return instead of erroring.
func validCandles(candles []model.Candle) bool {
	for _, c := range candles {
		if c.Open != 0 || c.High != 0 || c.Low != 0 || c.Close != 0 || c.Volume != 0 {
			return true
		}
	}
	return false
}

func validBreadth(b model.Breadth) bool {
	return b.Total > 0
}

// validChain rejects chains whose open interest is zero everywhere.
func validChain(snap model.OptionSnapshot) bool {
	return len(snap.Strikes) > 0 && snap.Aggregate.CallOI+snap.Aggregate.PutOI > 0
}

// FetchCandles acquires today's candles for every symbol. Failures are
// isolated per symbol: a symbol whose every tier fails maps to an empty
// slice and the rest of the batch is unaffected. Each successful
// acquisition is persisted before the next symbol is attempted.
func (o *Orchestrator) FetchCandles(ctx context.Context, symbols []string) map[string][]model.Candle {
	results := make(map[string][]model.Candle, len(symbols))

	for _, sym := range symbols {
		tiers := make([]Tier[[]model.Candle], 0, len(o.chains.Candles))
		for _, src := range o.chains.Candles {
			tiers = append(tiers, Tier[[]model.Candle]{
				Name: src.Name(),
				Fetch: func(ctx context.Context) ([]model.Candle, error) {
					return src.Candles(ctx, sym)
				},
			})
		}

		candles, tier, err := FirstValid(ctx, o.logger, validCandles, tiers)
		if err != nil {
			o.logger.Warn("candle acquisition failed",
				"symbol", sym,
				"error", err,
			)
			o.countAcquire("candles", "failure")
			results[sym] = []model.Candle{}
			continue
		}
		o.countAcquire("candles", tier)

		if err := o.store.UpsertCandles(ctx, candles); err != nil {
			// Broadcast still proceeds with the fetched values; a storage
			// outage must not starve subscribers.
			o.logger.Error("candle persist failed",
				"symbol", sym,
				"error", err,
			)
		}

		o.logger.Debug("candles acquired",
			"symbol", sym,
			"tier", tier,
			"rows", len(candles),
		)
		results[sym] = candles
	}

	return results
}

// FetchBreadth acquires the current advance/decline counts, stamps them
// with the current minute and persists them. On total failure the last
// stored row is returned if one exists.
func (o *Orchestrator) FetchBreadth(ctx context.Context) (model.Breadth, bool) {
	tiers := make([]Tier[model.Breadth], 0, len(o.chains.Breadth))
	for _, src := range o.chains.Breadth {
		tiers = append(tiers, Tier[model.Breadth]{
			Name: src.Name(),
			Fetch: func(ctx context.Context) (model.Breadth, error) {
				return src.Breadth(ctx)
			},
		})
	}

	b, tier, err := FirstValid(ctx, o.logger, validBreadth, tiers)
	if err != nil {
		o.logger.Warn("breadth acquisition failed", "error", err)
		o.countAcquire("breadth", "failure")
		last, ok, serr := o.store.LatestBreadth(ctx)
		if serr != nil {
			o.logger.Error("breadth carry-forward read failed", "error", serr)
			return model.Breadth{}, false
		}
		return last, ok
	}

	o.countAcquire("breadth", tier)

	now := o.now()
	b.Date = model.DateOf(now)
	b.Bucket = model.BucketOf(now)

	if err := o.store.UpsertBreadth(ctx, b); err != nil {
		o.logger.Error("breadth persist failed", "error", err)
	}

	o.logger.Debug("breadth acquired", "tier", tier, "total", b.Total)
	return b, true
}

// FetchOptionChain acquires the option chain for one index, computes its
// PCR, persists it and refreshes the in-memory PCR cache. On total failure
// the latest stored snapshot is returned so subscribers keep seeing the
// last known positions rather than a blank.
func (o *Orchestrator) FetchOptionChain(ctx context.Context, index string) (model.OptionSnapshot, bool) {
	tiers := make([]Tier[model.OptionSnapshot], 0, len(o.chains.Options))
	for _, src := range o.chains.Options {
		tiers = append(tiers, Tier[model.OptionSnapshot]{
			Name: src.Name(),
			Fetch: func(ctx context.Context) (model.OptionSnapshot, error) {
				return src.Chain(ctx, index)
			},
		})
	}

	snap, tier, err := FirstValid(ctx, o.logger, validChain, tiers)
	if err != nil {
		o.logger.Warn("option chain acquisition failed",
			"index", index,
			"error", err,
		)
		o.countAcquire("options", "failure")
		return o.storedChain(ctx, index)
	}
	o.countAcquire("options", tier)

	now := o.now()
	date, bucket := model.DateOf(now), model.BucketOf(now)
	snap.Aggregate.Symbol = index
	snap.Aggregate.Date = date
	snap.Aggregate.Bucket = bucket
	snap.Aggregate.PCR = model.ComputePCR(snap.Aggregate.PutOI, snap.Aggregate.CallOI)
	for i := range snap.Strikes {
		snap.Strikes[i].Symbol = index
		snap.Strikes[i].Date = date
		snap.Strikes[i].Bucket = bucket
	}

	if err := o.store.UpsertOptionSnapshot(ctx, snap); err != nil {
		o.logger.Error("option snapshot persist failed",
			"index", index,
			"error", err,
		)
	}

	o.setPCR(index, snap.Aggregate.PCR)

	if bucket >= eodBucket {
		rec := model.DailyPCR{
			Symbol: index,
			Date:   date,
			PCR:    snap.Aggregate.PCR,
			CallOI: snap.Aggregate.CallOI,
			PutOI:  snap.Aggregate.PutOI,
		}
		if err := o.store.SaveDailyPCR(ctx, rec); err != nil {
			o.logger.Error("daily pcr save failed",
				"index", index,
				"error", err,
			)
		}
	}

	o.logger.Debug("option chain acquired",
		"index", index,
		"tier", tier,
		"strikes", len(snap.Strikes),
		"pcr", snap.Aggregate.PCR,
	)
	return snap, true
}

// storedChain rebuilds a snapshot from the store's latest rows.
func (o *Orchestrator) storedChain(ctx context.Context, index string) (model.OptionSnapshot, bool) {
	agg, ok, err := o.store.LatestOptionAggregate(ctx, index)
	if err != nil {
		o.logger.Error("option carry-forward read failed",
			"index", index,
			"error", err,
		)
		return model.OptionSnapshot{}, false
	}
	if !ok {
		return model.OptionSnapshot{}, false
	}

	strikes, err := o.store.LatestOptionChain(ctx, index)
	if err != nil {
		o.logger.Error("option chain carry-forward read failed",
			"index", index,
			"error", err,
		)
		strikes = nil
	}

	o.setPCR(index, agg.PCR)
	return model.OptionSnapshot{Aggregate: agg, Strikes: strikes}, true
}

// PCR returns the current put-call ratio for an index: the in-memory cache
// first, the store next, the neutral default last.
func (o *Orchestrator) PCR(ctx context.Context, index string) float64 {
	o.mu.RLock()
	pcr, ok := o.lastPCR[index]
	o.mu.RUnlock()
	if ok {
		return pcr
	}

	agg, found, err := o.store.LatestOptionAggregate(ctx, index)
	if err == nil && found {
		o.setPCR(index, agg.PCR)
		return agg.PCR
	}
	return model.DefaultPCR
}

func (o *Orchestrator) setPCR(index string, pcr float64) {
	o.mu.Lock()
	o.lastPCR[index] = pcr
	o.mu.Unlock()
}
