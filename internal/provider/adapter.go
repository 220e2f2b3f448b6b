package provider

import (
	"context"
	"fmt"

	"github.com/maheshdev/marketbridge/internal/feed"
	"github.com/maheshdev/marketbridge/internal/model"
	"github.com/maheshdev/marketbridge/internal/symbol"
)

// FeedCandleSource adapts a feed.Client into a CandleSource. It resolves
// the canonical symbol to the provider's instrument key and stamps each bar
// with date, bucket and provenance. Index symbols report volume 0.
type FeedCandleSource struct {
	client   *feed.Client
	resolver *symbol.Resolver
	indices  map[string]bool
	interval string
}

// NewFeedCandleSource creates a candle source over a provider client.
func NewFeedCandleSource(client *feed.Client, resolver *symbol.Resolver, indices []string, interval string) *FeedCandleSource {
	idx := make(map[string]bool, len(indices))
	for _, s := range indices {
		idx[s] = true
	}
	return &FeedCandleSource{
		client:   client,
		resolver: resolver,
		indices:  idx,
		interval: interval,
	}
}

func (s *FeedCandleSource) Name() string {
	return s.client.Name()
}

func (s *FeedCandleSource) Candles(ctx context.Context, sym string) ([]model.Candle, error) {
	key, err := s.resolver.Resolve(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", sym, err)
	}

	bars, err := s.client.IntradayCandles(ctx, key, s.interval)
	if err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(bars))
	for _, bar := range bars {
		c := model.Candle{
			Symbol: sym,
			Date:   model.DateOf(bar.Timestamp),
			Bucket: model.BucketOf(bar.Timestamp),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
			Source: s.client.Name(),
		}
		if s.indices[sym] {
			c.Volume = 0
		}
		candles = append(candles, c)
	}

	return candles, nil
}

// FeedBreadthSource adapts a feed.Client into a BreadthSource.
type FeedBreadthSource struct {
	client *feed.Client
}

func NewFeedBreadthSource(client *feed.Client) *FeedBreadthSource {
	return &FeedBreadthSource{client: client}
}

func (s *FeedBreadthSource) Name() string {
	return s.client.Name()
}

func (s *FeedBreadthSource) Breadth(ctx context.Context) (model.Breadth, error) {
	counts, err := s.client.MarketBreadth(ctx)
	if err != nil {
		return model.Breadth{}, err
	}
	return model.Breadth{
		Advances:  counts.Advances,
		Declines:  counts.Declines,
		Unchanged: counts.Unchanged,
		Total:     counts.Total(),
		Source:    s.client.Name(),
	}, nil
}

// ComputedBreadthSourceName tags breadth rows derived from constituent
// candles rather than an exchange breadth endpoint.
const ComputedBreadthSourceName = "SCANNER_FALLBACK"

// ComputedBreadthSource derives breadth from a candle source: each
// constituent whose latest close is above its open counts as an advance.
// Used as the last breadth tier when no exchange endpoint answers.
type ComputedBreadthSource struct {
	source   CandleSource
	universe []string
}

func NewComputedBreadthSource(source CandleSource, universe []string) *ComputedBreadthSource {
	return &ComputedBreadthSource{source: source, universe: universe}
}

func (s *ComputedBreadthSource) Name() string {
	return ComputedBreadthSourceName
}

func (s *ComputedBreadthSource) Breadth(ctx context.Context) (model.Breadth, error) {
	b := model.Breadth{Source: ComputedBreadthSourceName}

	for _, sym := range s.universe {
		candles, err := s.source.Candles(ctx, sym)
		if err != nil || len(candles) == 0 {
			continue
		}
		last := candles[len(candles)-1]
		switch {
		case last.Close > last.Open:
			b.Advances++
		case last.Close < last.Open:
			b.Declines++
		default:
			b.Unchanged++
		}
	}

	b.Total = b.Advances + b.Declines + b.Unchanged
	if b.Total == 0 {
		return model.Breadth{}, fmt.Errorf("no constituent produced a candle")
	}
	return b, nil
}

// FeedChainSource adapts a feed.Client into a ChainSource.
type FeedChainSource struct {
	client *feed.Client
}

func NewFeedChainSource(client *feed.Client) *FeedChainSource {
	return &FeedChainSource{client: client}
}

func (s *FeedChainSource) Name() string {
	return s.client.Name()
}

func (s *FeedChainSource) Chain(ctx context.Context, index string) (model.OptionSnapshot, error) {
	snap, err := s.client.OptionChain(ctx, index)
	if err != nil {
		return model.OptionSnapshot{}, err
	}

	out := model.OptionSnapshot{
		Aggregate: model.OptionAggregate{
			Symbol: index,
			Expiry: snap.Expiry,
			CallOI: snap.CallOI,
			PutOI:  snap.PutOI,
		},
		Strikes: make([]model.OptionStrike, len(snap.Strikes)),
	}
	copy(out.Strikes, snap.Strikes)
	for i := range out.Strikes {
		out.Strikes[i].Symbol = index
	}

	return out, nil
}
