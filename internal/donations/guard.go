package donations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solidarityfund/fundraiser-backend/pkg/redis"
)

const countedScope = "donation-counted"

// CountGuard records which payment ids have already been applied to team
// totals. The marker is a Redis SETNX with a TTL comfortably longer than the
// provider's retry window; Rebuild covers anything that outlives it.
type CountGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewCountGuard(store redis.IdempotencyStore, ttl time.Duration) (*CountGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &CountGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark marks the payment as counted and reports whether it already
// was. The first caller wins the marker.
func (g *CountGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	if paymentID == "" {
		return false, errors.New("payment id is required")
	}
	key := g.store.IdempotencyKey(countedScope, paymentID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set counted marker: %w", err)
	}
	return !set, nil
}

// Release drops the marker so a retried delivery can re-run the increment.
func (g *CountGuard) Release(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return errors.New("payment id is required")
	}
	key := g.store.IdempotencyKey(countedScope, paymentID)
	return g.store.Del(ctx, key)
}
