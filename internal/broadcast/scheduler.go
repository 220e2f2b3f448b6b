package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshdev/marketbridge/internal/metrics"
	"github.com/maheshdev/marketbridge/internal/model"
)

// Fetcher acquires data for a tick. Implemented by provider.Orchestrator.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbols []string) map[string][]model.Candle
	FetchBreadth(ctx context.Context) (model.Breadth, bool)
	FetchOptionChain(ctx context.Context, index string) (model.OptionSnapshot, bool)
	PCR(ctx context.Context, index string) float64
}

// Transport fans messages out to subscribers. Implemented by Hub.
type Transport interface {
	Broadcast(msg Message) int
	SubscriberCount() int
}

// Config holds the scheduler's intervals and symbol universe.
type Config struct {
	CandleInterval  time.Duration
	BreadthInterval time.Duration
	OptionInterval  time.Duration
	PCRInterval     time.Duration

	Watchlist []string // Symbols broadcast in candle updates
	Indices   []string // Subset with option chains and PCR
}

// Scheduler drives the periodic broadcasts. The four tasks run
// concurrently with each other; ticks within one task are serialized, and
// a tick does not start until the previous one settles.
type Scheduler struct {
	cfg     Config
	fetcher Fetcher
	hub     Transport
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	indexSet map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler. The metrics set may be nil.
func NewScheduler(cfg Config, fetcher Fetcher, hub Transport, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	idx := make(map[string]bool, len(cfg.Indices))
	for _, s := range cfg.Indices {
		idx[s] = true
	}
	return &Scheduler{
		cfg:      cfg,
		fetcher:  fetcher,
		hub:      hub,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		indexSet: idx,
	}
}

// Start launches the four broadcast loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.startLoop("candles", s.cfg.CandleInterval, s.candleTick)
	s.startLoop("breadth", s.cfg.BreadthInterval, s.breadthTick)
	s.startLoop("options", s.cfg.OptionInterval, s.optionTick)
	s.startLoop("pcr", s.cfg.PCRInterval, s.pcrTick)

	s.logger.Info("broadcast scheduler started",
		"candle_interval", s.cfg.CandleInterval,
		"breadth_interval", s.cfg.BreadthInterval,
		"option_interval", s.cfg.OptionInterval,
		"pcr_interval", s.cfg.PCRInterval,
		"watchlist", len(s.cfg.Watchlist),
	)
	return nil
}

// Stop waits for in-flight ticks to settle.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("broadcast scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) startLoop(task string, interval time.Duration, tick func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Tick immediately on start.
		s.runTick(task, tick)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runTick(task, tick)
			}
		}
	}()
}

func (s *Scheduler) runTick(task string, tick func(context.Context)) {
	if s.metrics != nil {
		s.metrics.TickTotal.WithLabelValues(task).Inc()
	}
	tick(s.ctx)
}

// candleTick fetches and broadcasts the watchlist's candles. The fetch is
// skipped entirely when nobody is listening.
func (s *Scheduler) candleTick(ctx context.Context) {
	if s.hub.SubscriberCount() == 0 {
		s.logger.Debug("skipping candle tick, no subscribers")
		return
	}

	results := s.fetcher.FetchCandles(ctx, s.cfg.Watchlist)

	updates := make([]model.CandleUpdate, 0, len(results))
	var latest int64
	for _, sym := range s.cfg.Watchlist {
		pcr := model.DefaultPCR
		if s.indexSet[sym] {
			pcr = s.fetcher.PCR(ctx, sym)
		}
		update, ok := BuildCandleUpdate(sym, results[sym], pcr)
		if !ok {
			continue
		}
		updates = append(updates, update)
		if update.Timestamp > latest {
			latest = update.Timestamp
		}
	}
	if len(updates) == 0 {
		return
	}

	s.hub.Broadcast(CandleBatch{Timestamp: latest, Updates: updates})
}

// breadthTick fetches breadth unconditionally so every poll is persisted,
// then broadcasts when subscribers exist.
func (s *Scheduler) breadthTick(ctx context.Context) {
	b, ok := s.fetcher.FetchBreadth(ctx)
	if !ok {
		return
	}
	if s.hub.SubscriberCount() == 0 {
		return
	}
	s.hub.Broadcast(BreadthMsg{Timestamp: s.now().UnixMilli(), Breadth: b})
}

// optionTick broadcasts the chain for every tracked index.
func (s *Scheduler) optionTick(ctx context.Context) {
	if s.hub.SubscriberCount() == 0 {
		s.logger.Debug("skipping option tick, no subscribers")
		return
	}

	for _, index := range s.cfg.Indices {
		snap, ok := s.fetcher.FetchOptionChain(ctx, index)
		if !ok {
			continue
		}
		s.hub.Broadcast(OptionChainMsg{
			Symbol:    index,
			Timestamp: s.now().UnixMilli(),
			Strikes:   snap.Strikes,
		})
	}
}

// pcrTick broadcasts the current put-call ratio for every tracked index.
func (s *Scheduler) pcrTick(ctx context.Context) {
	if s.hub.SubscriberCount() == 0 {
		return
	}

	for _, index := range s.cfg.Indices {
		s.hub.Broadcast(PCRMsg{
			Symbol:    index,
			Timestamp: s.now().UnixMilli(),
			PCR:       s.fetcher.PCR(ctx, index),
		})
	}
}
