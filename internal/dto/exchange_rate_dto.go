package dto

import (
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GetRatesRequest holds the path and query parameters of a rates lookup.
type GetRatesRequest struct {
	Day  string `uri:"day" binding:"required"`
	Base string `form:"base" binding:"omitempty,len=3,alpha,uppercase"`
}

// ExchangeRatesResponse is the rate table as returned to API clients.
type ExchangeRatesResponse struct {
	Base  string                     `json:"base" example:"USD"`
	Date  string                     `json:"date" example:"2024-12-24"`
	Rates map[string]decimal.Decimal `json:"rates" swaggertype:"object,string" example:"EUR:0.961402"`
}

// ToExchangeRatesResponse converts a domain.RateTable to ExchangeRatesResponse DTO
func ToExchangeRatesResponse(table *domain.RateTable) ExchangeRatesResponse {
	rates := make(map[string]decimal.Decimal, len(table.Rates))
	for code, rate := range table.Rates {
		rates[code] = rate
	}
	return ExchangeRatesResponse{
		Base:  table.BaseCurrency,
		Date:  table.Date.Format(domain.DateLayout),
		Rates: rates,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"Invalid date format"`
}
