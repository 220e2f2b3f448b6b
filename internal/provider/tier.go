package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllTiersFailed reports that every tier in a chain was tried and none
// produced a valid payload.
var ErrAllTiersFailed = errors.New("all tiers failed")

// Tier is one named source in a fallback chain.
type Tier[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// FirstValid tries tiers in order and returns the first payload the valid
// predicate accepts, together with the winning tier's name. A tier that
// errors, panics or returns an invalid payload advances to the next; only
// after the last tier does the chain fail. Context cancellation stops the
// chain immediately.
func FirstValid[T any](ctx context.Context, logger *slog.Logger, valid func(T) bool, tiers []Tier[T]) (T, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		payload, err := runTier(ctx, tier)
		if err != nil {
			logger.Warn("tier failed",
				"tier", tier.Name,
				"error", err,
			)
			continue
		}
		if !valid(payload) {
			logger.Warn("tier returned invalid payload",
				"tier", tier.Name,
			)
			continue
		}
		return payload, tier.Name, nil
	}

	return zero, "", ErrAllTiersFailed
}

// runTier invokes one tier's fetch, converting a panic into an error so a
// misbehaving source reads the same as a timeout.
func runTier[T any](ctx context.Context, tier Tier[T]) (payload T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tier %s panicked: %v", tier.Name, r)
		}
	}()
	return tier.Fetch(ctx)
}
