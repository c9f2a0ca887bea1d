package services

import (
	"context"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
)

// RateSource is the upstream rate provider.
// Failures are *apperrors.UpstreamError values of client or server class.
type RateSource interface {
	// FetchLatest retrieves the current rates relative to baseCurrency.
	FetchLatest(ctx context.Context, baseCurrency string) (*domain.RateTable, error)

	// FetchForDate retrieves the rates relative to baseCurrency on a past date.
	FetchForDate(ctx context.Context, baseCurrency string, date time.Time) (*domain.RateTable, error)
}

// CurrencyPolicySvc decides which currency can be queried upstream
type CurrencyPolicySvc interface {
	IsSupported(currency string) bool
	ResolveQueryBase(desired string) string
}

// CurrencyRebaserSvc re-expresses a rate table relative to another base
type CurrencyRebaserSvc interface {
	Rebase(table domain.RateTable, targetBase string) (domain.RateTable, error)
}

// RateReaderSvc defines the rate retrieval operations exposed to the transport layer
type RateReaderSvc interface {
	// GetLatest returns the current rates for requestedBase. Never cached.
	GetLatest(ctx context.Context, requestedBase string) (*domain.RateTable, error)

	// GetForDate returns the rates for requestedBase on date, served from the snapshot cache when present.
	GetForDate(ctx context.Context, requestedBase string, date time.Time) (*domain.RateTable, error)
}

// RateOrchestratorSvc combines all rate retrieval service interfaces
type RateOrchestratorSvc interface {
	RateReaderSvc
}
