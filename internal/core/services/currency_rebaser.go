package services

import (
	"fmt"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CurrencyRebaser re-expresses rate tables relative to another base currency.
type CurrencyRebaser struct {
	rounding domain.RoundingPolicy
}

// NewCurrencyRebaser creates a CurrencyRebaser that rounds computed rates with rounding.
func NewCurrencyRebaser(rounding domain.RoundingPolicy) *CurrencyRebaser {
	return &CurrencyRebaser{rounding: rounding}
}

// Rebase converts table so that targetBase becomes the base.
//
// Rebasing onto the current base returns an exact copy with no rounding applied.
// Otherwise the target's own rate is the pivot: the old base maps to 1/pivot, the
// target maps to exactly 1 and every other currency c maps to rate(c)/pivot, all
// rounded to the configured scale. The date is carried over.
func (r *CurrencyRebaser) Rebase(table domain.RateTable, targetBase string) (domain.RateTable, error) {
	if len(table.Rates) == 0 {
		return domain.RateTable{}, fmt.Errorf("%w: cannot rebase an empty rate table", apperrors.ErrValidation)
	}
	if targetBase == table.BaseCurrency {
		return table.Clone(), nil
	}

	pivot, ok := table.Rates[targetBase]
	if !ok {
		return domain.RateTable{}, &apperrors.TargetCurrencyNotFoundError{Currency: targetBase}
	}
	if pivot.IsZero() {
		return domain.RateTable{}, fmt.Errorf("%w: rate for %s is zero", apperrors.ErrValidation, targetBase)
	}

	one := decimal.NewFromInt(1)
	rates := make(map[string]decimal.Decimal, len(table.Rates))
	for code, rate := range table.Rates {
		switch code {
		case targetBase:
			rates[code] = one
		case table.BaseCurrency:
			rates[code] = r.rounding.Divide(one, pivot)
		default:
			rates[code] = r.rounding.Divide(rate, pivot)
		}
	}

	return domain.RateTable{
		BaseCurrency: targetBase,
		Date:         table.Date,
		Rates:        rates,
	}, nil
}
