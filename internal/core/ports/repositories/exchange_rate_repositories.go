package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
)

// RateCacheReader defines read operations over stored rate snapshots
type RateCacheReader interface {
	// Exists reports whether a snapshot is stored for (date, base).
	Exists(ctx context.Context, date time.Time, baseCurrency string) (bool, error)

	// Load returns the stored snapshot for (date, base). Only called after Exists returned true.
	Load(ctx context.Context, date time.Time, baseCurrency string) (*domain.RateTable, error)
}

// RateCacheWriter defines write operations over stored rate snapshots
type RateCacheWriter interface {
	// Store persists one row per (date, base, target). Rows already present are left untouched.
	Store(ctx context.Context, table domain.RateTable) error
}

// RateCache combines all rate snapshot operations
// This is a facade for clients that need access to all operations
type RateCache interface {
	RateCacheReader
	RateCacheWriter
}

// RateCacheWithTx extends RateCache with transaction capabilities
type RateCacheWithTx interface {
	RateCache
	TransactionManager
}
