package mapping_test

import (
	"sort"
	"testing"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/SscSPs/exchange_rates_service/internal/models"
	"github.com/SscSPs/exchange_rates_service/internal/utils/mapping"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModelExchangeRates(t *testing.T) {
	date := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)
	recordedAt := time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC)
	table := domain.RateTable{
		BaseCurrency: "USD",
		Date:         date,
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.961402"),
		},
	}

	rows := mapping.ToModelExchangeRates(table, recordedAt)
	require.Len(t, rows, 2)
	sort.Slice(rows, func(i, j int) bool { return rows[i].TargetCurrency < rows[j].TargetCurrency })

	assert.Equal(t, "EUR", rows[0].TargetCurrency)
	assert.Equal(t, "USD", rows[0].BaseCurrency)
	assert.True(t, decimal.RequireFromString("0.961402").Equal(rows[0].Rate))
	assert.Equal(t, date, rows[0].Date)
	assert.Equal(t, recordedAt, rows[0].CreatedAt)
	assert.Equal(t, "USD", rows[1].TargetCurrency)
}

func TestToDomainRateTable(t *testing.T) {
	// a DATE column scanned back may carry a location other than UTC
	scanned := time.Date(2024, 12, 24, 0, 0, 0, 0, time.Local)
	rows := []models.ExchangeRate{
		{ID: 1, Date: scanned, BaseCurrency: "USD", TargetCurrency: "EUR", Rate: decimal.RequireFromString("0.961402")},
		{ID: 2, Date: scanned, BaseCurrency: "USD", TargetCurrency: "GBP", Rate: decimal.RequireFromString("0.796183")},
	}

	table := mapping.ToDomainRateTable(time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), "USD", rows)

	assert.Equal(t, "USD", table.BaseCurrency)
	require.Len(t, table.Rates, 2)
	assert.True(t, decimal.RequireFromString("0.796183").Equal(table.Rates["GBP"]))
}
