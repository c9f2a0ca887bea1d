package domain

import (
	"fmt"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
)

// ExchangeRatesSettings is the process-wide rate configuration.
// It is built once at startup and passed to constructors; nothing mutates it afterwards.
type ExchangeRatesSettings struct {
	// CanonicalBase is the one currency historical snapshots are stored under.
	CanonicalBase string
	// FallbackCurrency is queried upstream in place of an unsupported base.
	FallbackCurrency string
	// UnsupportedBases lists currencies the provider refuses as a query base.
	UnsupportedBases CurrencySet
	Rounding         RoundingPolicy
}

// Validate rejects settings the rate engine cannot run with.
func (s ExchangeRatesSettings) Validate() error {
	if !IsCurrencyCode(s.CanonicalBase) {
		return fmt.Errorf("%w: canonical base %q is not a currency code", apperrors.ErrInvalidConfiguration, s.CanonicalBase)
	}
	if !IsCurrencyCode(s.FallbackCurrency) {
		return fmt.Errorf("%w: fallback currency %q is not a currency code", apperrors.ErrInvalidConfiguration, s.FallbackCurrency)
	}
	if s.UnsupportedBases.Contains(s.FallbackCurrency) {
		return fmt.Errorf("%w: fallback currency %s is itself unsupported", apperrors.ErrInvalidConfiguration, s.FallbackCurrency)
	}
	for _, code := range s.UnsupportedBases.Codes() {
		if !IsCurrencyCode(code) {
			return fmt.Errorf("%w: unsupported base %q is not a currency code", apperrors.ErrInvalidConfiguration, code)
		}
	}
	return s.Rounding.Validate()
}
