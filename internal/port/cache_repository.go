package port

import (
	"context"

	"github.com/tejasmadane2310/billing-ledger/internal/core/domain"
)

// CacheRepository serves advisory product snapshots ahead of the relational
// store. The cache is never authoritative: a stale read only affects the
// advisory cart-building check, never a committed bill.
type CacheRepository interface {
	// GetSnapshot returns nil on a cache miss.
	GetSnapshot(ctx context.Context, productID string) (*domain.ProductSnapshot, error)

	SetSnapshot(ctx context.Context, snapshot domain.ProductSnapshot) error

	// DecrementStock atomically lowers the cached stock after a committed
	// sale, if the product is cached. No-op on a miss.
	DecrementStock(ctx context.Context, productID string, quantity int) error

	// InvalidateProduct drops the cached snapshot (after an admin stock
	// override or price change).
	InvalidateProduct(ctx context.Context, productID string) error
}
