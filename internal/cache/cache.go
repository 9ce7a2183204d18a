package cache

import (
	"context"
	"time"

	"gudangresto/backend/internal/domain"
)

// BalanceCache fronts balance reads for stock-level displays. Writes to the
// ledger invalidate the affected item so the cache never outlives a
// movement by more than its TTL.
type BalanceCache interface {
	Get(ctx context.Context, itemID string) (*domain.BalanceResponse, bool, error)
	Set(ctx context.Context, itemID string, value *domain.BalanceResponse, ttl time.Duration) error
	Invalidate(ctx context.Context, itemID string) error
}

type NoopBalanceCache struct{}

func (NoopBalanceCache) Get(_ context.Context, _ string) (*domain.BalanceResponse, bool, error) {
	return nil, false, nil
}

func (NoopBalanceCache) Set(_ context.Context, _ string, _ *domain.BalanceResponse, _ time.Duration) error {
	return nil
}

func (NoopBalanceCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
