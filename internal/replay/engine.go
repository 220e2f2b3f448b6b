package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshdev/marketbridge/internal/broadcast"
	"github.com/maheshdev/marketbridge/internal/metrics"
	"github.com/maheshdev/marketbridge/internal/model"
)

// State is the engine's playback phase.
type State int32

const (
	StateLoaded State = iota
	StateWaitingForClient
	StatePlaying
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateWaitingForClient:
		return "waiting_for_client"
	case StatePlaying:
		return "playing"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// InstantSpeed and above disables inter-bucket sleeps entirely.
const InstantSpeed = 999

// Store is the slice of the snapshot store the engine reads at
// construction.
type Store interface {
	CandlesForDate(ctx context.Context, date string) ([]model.Candle, error)
	OptionAggregatesForDate(ctx context.Context, symbol, date string) ([]model.OptionAggregate, error)
	OptionStrikesForDate(ctx context.Context, symbol, date string) ([]model.OptionStrike, error)
}

// Transport fans replayed messages out. Implemented by broadcast.Hub.
type Transport interface {
	Broadcast(msg broadcast.Message) int
	WaitForSubscriber(ctx context.Context) error
}

// Config holds one playback run's parameters.
type Config struct {
	Date    string  // Target trading date (YYYY-MM-DD)
	Start   string  // First bucket (HH:MM)
	End     string  // Last bucket, inclusive
	Speed   float64 // Minutes per 60/Speed wall seconds; >= InstantSpeed plays without sleeps
	Indices []string
	Grace   time.Duration // Delay after the first subscriber before playback
}

// Engine replays one day's candles, option chains and PCR over a
// transport. A single Engine runs once.
type Engine struct {
	cfg       Config
	transport Transport
	logger    *slog.Logger
	metrics   *metrics.Metrics

	state atomic.Int32
	sleep func(time.Duration)

	buckets  []string
	byBucket map[string][]model.Candle

	// Per-index recordings keyed by bucket, and the carry-forward cursors
	// they advance. A minute with no recording replays the most recent
	// prior minute's values.
	aggByBucket   map[string]map[string]model.OptionAggregate
	chainByBucket map[string]map[string][]model.OptionStrike
	chains        map[string][]model.OptionStrike
	pcr           map[string]float64
}

// New loads the target date's snapshots and returns an engine in the
// Loaded state. Loading a date with no candles is an error; replaying
// silence helps nobody.
func New(ctx context.Context, cfg Config, store Store, transport Transport, logger *slog.Logger, m *metrics.Metrics) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	buckets, err := model.BucketRange(cfg.Start, cfg.End)
	if err != nil {
		return nil, err
	}

	candles, err := store.CandlesForDate(ctx, cfg.Date)
	if err != nil {
		return nil, fmt.Errorf("load candles for %s: %w", cfg.Date, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles recorded for %s", cfg.Date)
	}

	byBucket := make(map[string][]model.Candle)
	for _, c := range candles {
		byBucket[c.Bucket] = append(byBucket[c.Bucket], c)
	}

	e := &Engine{
		cfg:           cfg,
		transport:     transport,
		logger:        logger,
		metrics:       m,
		sleep:         time.Sleep,
		buckets:       buckets,
		byBucket:      byBucket,
		aggByBucket:   make(map[string]map[string]model.OptionAggregate),
		chainByBucket: make(map[string]map[string][]model.OptionStrike),
		chains:        make(map[string][]model.OptionStrike),
		pcr:           make(map[string]float64),
	}

	for _, index := range cfg.Indices {
		aggs, err := store.OptionAggregatesForDate(ctx, index, cfg.Date)
		if err != nil {
			return nil, fmt.Errorf("load option aggregates for %s: %w", index, err)
		}
		strikes, err := store.OptionStrikesForDate(ctx, index, cfg.Date)
		if err != nil {
			return nil, fmt.Errorf("load option chains for %s: %w", index, err)
		}

		byAgg := make(map[string]model.OptionAggregate, len(aggs))
		for _, agg := range aggs {
			byAgg[agg.Bucket] = agg
		}
		byChain := make(map[string][]model.OptionStrike)
		for _, st := range strikes {
			byChain[st.Bucket] = append(byChain[st.Bucket], st)
		}
		e.aggByBucket[index] = byAgg
		e.chainByBucket[index] = byChain

		// Cursor starts at the last recording at or before Start, so a
		// playback beginning mid-session opens with that minute's values
		// rather than anything recorded later in the day.
		e.pcr[index] = model.DefaultPCR
		for _, agg := range aggs {
			if agg.Bucket > cfg.Start {
				break
			}
			e.pcr[index] = agg.PCR
			e.chains[index] = byChain[agg.Bucket]
		}
	}

	e.state.Store(int32(StateLoaded))
	logger.Info("replay loaded",
		"date", cfg.Date,
		"start", cfg.Start,
		"end", cfg.End,
		"speed", cfg.Speed,
		"candles", len(candles),
	)
	return e, nil
}

// State returns the current playback phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run blocks until playback completes or the context ends. The transport
// stays open after completion so a late client can still inspect final
// state.
func (e *Engine) Run(ctx context.Context) error {
	e.state.Store(int32(StateWaitingForClient))
	e.logger.Info("waiting for first subscriber")

	if err := e.transport.WaitForSubscriber(ctx); err != nil {
		return err
	}
	if e.cfg.Grace > 0 {
		e.sleep(e.cfg.Grace)
	}

	e.state.Store(int32(StatePlaying))
	e.logger.Info("playback started", "buckets", len(e.buckets))

	// Per-symbol session history grows as buckets play, so frames and
	// VWAP reflect the session up to the replayed minute only.
	history := make(map[string][]model.Candle)

	for i, bucket := range e.buckets {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.emitBucket(bucket, history)

		if e.metrics != nil {
			e.metrics.ReplayBuckets.Inc()
		}
		if i < len(e.buckets)-1 && e.cfg.Speed < InstantSpeed {
			e.sleep(e.interBucketDelay())
		}
	}

	e.state.Store(int32(StateCompleted))
	e.logger.Info("playback completed", "buckets", len(e.buckets))
	return nil
}

func (e *Engine) interBucketDelay() time.Duration {
	speed := e.cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(time.Minute) / speed)
}

// emitBucket sends one minute's messages: the batched candle update, then
// the chain and PCR for each tracked index.
func (e *Engine) emitBucket(bucket string, history map[string][]model.Candle) {
	for _, index := range e.cfg.Indices {
		if agg, ok := e.aggByBucket[index][bucket]; ok {
			e.pcr[index] = agg.PCR
			e.chains[index] = e.chainByBucket[index][bucket]
		}
	}

	rows := e.byBucket[bucket]

	updates := make([]model.CandleUpdate, 0, len(rows))
	for _, c := range rows {
		history[c.Symbol] = append(history[c.Symbol], c)

		pcr := model.DefaultPCR
		if v, ok := e.pcr[c.Symbol]; ok {
			pcr = v
		}
		update, ok := broadcast.BuildCandleUpdate(c.Symbol, history[c.Symbol], pcr)
		if !ok {
			continue
		}
		updates = append(updates, update)
	}

	ts, err := model.EpochMillis(e.cfg.Date, bucket)
	if err != nil {
		e.logger.Error("bad bucket label", "bucket", bucket, "error", err)
		return
	}

	if len(updates) > 0 {
		e.transport.Broadcast(broadcast.CandleBatch{Timestamp: ts, Updates: updates})
	}

	for _, index := range e.cfg.Indices {
		e.transport.Broadcast(broadcast.OptionChainMsg{
			Symbol:    index,
			Timestamp: ts,
			Strikes:   e.chains[index],
		})
		pcr := model.DefaultPCR
		if v, ok := e.pcr[index]; ok {
			pcr = v
		}
		e.transport.Broadcast(broadcast.PCRMsg{
			Symbol:    index,
			Timestamp: ts,
			PCR:       pcr,
		})
	}
}
