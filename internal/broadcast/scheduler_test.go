package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/maheshdev/marketbridge/internal/model"
)

func breadthFixture() model.Breadth {
	return model.Breadth{
		Date: "2026-01-05", Bucket: "10:30",
		Advances: 1200, Declines: 800, Unchanged: 67, Total: 2067,
		Source: "exchange",
	}
}

// fakeFetcher counts calls so ticks can assert skip behavior.
type fakeFetcher struct {
	candleCalls  int
	breadthCalls int
	chainCalls   int

	candles map[string][]model.Candle
	breadth model.Breadth
	chains  map[string]model.OptionSnapshot
	pcr     map[string]float64
}

func (f *fakeFetcher) FetchCandles(_ context.Context, symbols []string) map[string][]model.Candle {
	f.candleCalls++
	out := make(map[string][]model.Candle, len(symbols))
	for _, sym := range symbols {
		out[sym] = f.candles[sym]
	}
	return out
}

func (f *fakeFetcher) FetchBreadth(context.Context) (model.Breadth, bool) {
	f.breadthCalls++
	return f.breadth, f.breadth.Total > 0
}

func (f *fakeFetcher) FetchOptionChain(_ context.Context, index string) (model.OptionSnapshot, bool) {
	f.chainCalls++
	snap, ok := f.chains[index]
	return snap, ok
}

func (f *fakeFetcher) PCR(_ context.Context, index string) float64 {
	if pcr, ok := f.pcr[index]; ok {
		return pcr
	}
	return model.DefaultPCR
}

// fakeTransport records broadcasts instead of writing to sockets.
type fakeTransport struct {
	subscribers int
	messages    []Message
}

func (f *fakeTransport) Broadcast(msg Message) int {
	f.messages = append(f.messages, msg)
	return f.subscribers
}

func (f *fakeTransport) SubscriberCount() int { return f.subscribers }

func testConfig() Config {
	return Config{
		CandleInterval:  10 * time.Second,
		BreadthInterval: 30 * time.Second,
		OptionInterval:  time.Minute,
		PCRInterval:     time.Minute,
		Watchlist:       []string{"NIFTY", "RELIANCE"},
		Indices:         []string{"NIFTY"},
	}
}

func TestCandleTick(t *testing.T) {
	t.Run("skips fetch with no subscribers", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		transport := &fakeTransport{subscribers: 0}
		s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

		s.candleTick(context.Background())

		if fetcher.candleCalls != 0 {
			t.Error("candle fetch ran with nobody listening")
		}
		if len(transport.messages) != 0 {
			t.Error("broadcast with nobody listening")
		}
	})

	t.Run("broadcasts one batch with per-symbol updates", func(t *testing.T) {
		fetcher := &fakeFetcher{
			candles: map[string][]model.Candle{
				"NIFTY": {{Symbol: "NIFTY", Date: "2026-01-05", Bucket: "10:30", Open: 22000, High: 22050, Low: 21990, Close: 22040}},
				"RELIANCE": {
					{Symbol: "RELIANCE", Date: "2026-01-05", Bucket: "10:29", Open: 1200, High: 1201, Low: 1199, Close: 1200.5, Volume: 900},
					{Symbol: "RELIANCE", Date: "2026-01-05", Bucket: "10:30", Open: 1200.5, High: 1202, Low: 1200, Close: 1201, Volume: 400},
				},
			},
			pcr: map[string]float64{"NIFTY": 1.25},
		}
		transport := &fakeTransport{subscribers: 1}
		s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

		s.candleTick(context.Background())

		if len(transport.messages) != 1 {
			t.Fatalf("broadcast %d messages, want 1", len(transport.messages))
		}
		batch := transport.messages[0].(CandleBatch)
		if len(batch.Updates) != 2 {
			t.Fatalf("batch has %d updates, want 2", len(batch.Updates))
		}

		bySymbol := map[string]model.CandleUpdate{}
		for _, u := range batch.Updates {
			bySymbol[u.Symbol] = u
		}
		if bySymbol["NIFTY"].PCR != 1.25 {
			t.Errorf("index pcr = %v, want 1.25", bySymbol["NIFTY"].PCR)
		}
		if bySymbol["RELIANCE"].PCR != model.DefaultPCR {
			t.Errorf("equity pcr = %v, want default", bySymbol["RELIANCE"].PCR)
		}
		if batch.Timestamp != mustMillis(t, "2026-01-05", "10:30") {
			t.Errorf("batch timestamp = %d", batch.Timestamp)
		}
	})

	t.Run("symbol with no candles is omitted", func(t *testing.T) {
		fetcher := &fakeFetcher{
			candles: map[string][]model.Candle{
				"NIFTY": {{Symbol: "NIFTY", Date: "2026-01-05", Bucket: "10:30", Close: 22040, Open: 22000, High: 22050, Low: 21990}},
			},
		}
		transport := &fakeTransport{subscribers: 1}
		s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

		s.candleTick(context.Background())

		batch := transport.messages[0].(CandleBatch)
		if len(batch.Updates) != 1 || batch.Updates[0].Symbol != "NIFTY" {
			t.Errorf("updates = %v", batch.Updates)
		}
	})
}

func TestBreadthTick(t *testing.T) {
	t.Run("fetches even with no subscribers", func(t *testing.T) {
		fetcher := &fakeFetcher{breadth: breadthFixture()}
		transport := &fakeTransport{subscribers: 0}
		s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

		s.breadthTick(context.Background())

		if fetcher.breadthCalls != 1 {
			t.Error("breadth fetch skipped; every poll must persist")
		}
		if len(transport.messages) != 0 {
			t.Error("broadcast with nobody listening")
		}
	})

	t.Run("broadcasts to subscribers", func(t *testing.T) {
		fetcher := &fakeFetcher{breadth: breadthFixture()}
		transport := &fakeTransport{subscribers: 2}
		s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

		s.breadthTick(context.Background())

		if len(transport.messages) != 1 {
			t.Fatalf("broadcast %d messages, want 1", len(transport.messages))
		}
		if transport.messages[0].MessageType() != TypeMarketBreadth {
			t.Errorf("type = %v", transport.messages[0].MessageType())
		}
	})
}

func TestOptionAndPCRTicks(t *testing.T) {
	fetcher := &fakeFetcher{
		chains: map[string]model.OptionSnapshot{
			"NIFTY": {
				Aggregate: model.OptionAggregate{Symbol: "NIFTY", CallOI: 1000, PutOI: 1250, PCR: 1.25},
				Strikes:   []model.OptionStrike{{Strike: 22000, CallOI: 1000, PutOI: 1250}},
			},
		},
		pcr: map[string]float64{"NIFTY": 1.25},
	}
	transport := &fakeTransport{subscribers: 1}
	s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

	s.optionTick(context.Background())
	s.pcrTick(context.Background())

	if len(transport.messages) != 2 {
		t.Fatalf("broadcast %d messages, want 2", len(transport.messages))
	}
	chain := transport.messages[0].(OptionChainMsg)
	if chain.Symbol != "NIFTY" || len(chain.Strikes) != 1 {
		t.Errorf("chain = %+v", chain)
	}
	pcr := transport.messages[1].(PCRMsg)
	if pcr.Symbol != "NIFTY" || pcr.PCR != 1.25 {
		t.Errorf("pcr = %+v", pcr)
	}
}

func TestOptionTickSkipsWithoutSubscribers(t *testing.T) {
	fetcher := &fakeFetcher{}
	transport := &fakeTransport{subscribers: 0}
	s := NewScheduler(testConfig(), fetcher, transport, nil, nil)

	s.optionTick(context.Background())
	s.pcrTick(context.Background())

	if fetcher.chainCalls != 0 {
		t.Error("chain fetch ran with nobody listening")
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	fetcher := &fakeFetcher{breadth: breadthFixture()}
	transport := &fakeTransport{subscribers: 0}

	cfg := testConfig()
	cfg.CandleInterval = time.Hour
	cfg.BreadthInterval = time.Hour
	cfg.OptionInterval = time.Hour
	cfg.PCRInterval = time.Hour

	s := NewScheduler(cfg, fetcher, transport, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	// The immediate first tick runs before Stop returns.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	if fetcher.breadthCalls == 0 {
		t.Error("breadth never fetched on startup")
	}
}
