package services

import (
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
)

// CurrencyPolicy knows which bases the upstream provider accepts.
type CurrencyPolicy struct {
	fallbackCurrency string
	unsupported      domain.CurrencySet
}

// NewCurrencyPolicy creates a CurrencyPolicy from the rate settings.
func NewCurrencyPolicy(settings domain.ExchangeRatesSettings) *CurrencyPolicy {
	return &CurrencyPolicy{
		fallbackCurrency: settings.FallbackCurrency,
		unsupported:      settings.UnsupportedBases,
	}
}

// IsSupported reports whether currency can be used as an upstream query base.
func (p *CurrencyPolicy) IsSupported(currency string) bool {
	return !p.unsupported.Contains(currency)
}

// ResolveQueryBase returns desired when the provider accepts it, the fallback currency otherwise.
func (p *CurrencyPolicy) ResolveQueryBase(desired string) string {
	if p.IsSupported(desired) {
		return desired
	}
	return p.fallbackCurrency
}
