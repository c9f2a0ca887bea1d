package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one row of the exchange_rates table: on Date, 1 BaseCurrency = Rate TargetCurrency.
type ExchangeRate struct {
	ID             int64           `json:"id"`
	Date           time.Time       `json:"date"`
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`
	CreatedAt      time.Time       `json:"createdAt"`
}
