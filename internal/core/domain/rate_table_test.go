package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() domain.RateTable {
	return domain.RateTable{
		BaseCurrency: "EUR",
		Date:         time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
		Rates: map[string]decimal.Decimal{
			"EUR": decimal.NewFromInt(1),
			"USD": dec("1.0850"),
			"GBP": dec("0.8600"),
		},
	}
}

func TestRateTable_CloneDoesNotShareRates(t *testing.T) {
	original := sampleTable()
	clone := original.Clone()
	clone.Rates["JPY"] = dec("160.1")

	_, ok := original.Rate("JPY")
	assert.False(t, ok)
	assert.Equal(t, original.BaseCurrency, clone.BaseCurrency)
	assert.True(t, original.Date.Equal(clone.Date))
}

func TestRateTable_PositiveOnly(t *testing.T) {
	table := sampleTable()
	table.Rates["BTC"] = decimal.Zero
	table.Rates["XAU"] = dec("-0.0004")

	kept, dropped := table.PositiveOnly()

	assert.Equal(t, []string{"BTC", "XAU"}, dropped)
	assert.Len(t, kept.Rates, 3)
	require.NoError(t, kept.Validate())
	_, stillThere := table.Rates["BTC"]
	assert.True(t, stillThere)

	_, none := sampleTable().PositiveOnly()
	assert.Empty(t, none)
}

func TestRateTable_Validate(t *testing.T) {
	require.NoError(t, sampleTable().Validate())

	tests := []struct {
		name   string
		mutate func(*domain.RateTable)
	}{
		{name: "lowercase base", mutate: func(rt *domain.RateTable) { rt.BaseCurrency = "eur" }},
		{name: "missing date", mutate: func(rt *domain.RateTable) { rt.Date = time.Time{} }},
		{name: "no rates", mutate: func(rt *domain.RateTable) { rt.Rates = map[string]decimal.Decimal{} }},
		{name: "bad code", mutate: func(rt *domain.RateTable) { rt.Rates["US"] = dec("1") }},
		{name: "zero rate", mutate: func(rt *domain.RateTable) { rt.Rates["CHF"] = decimal.Zero }},
		{name: "negative rate", mutate: func(rt *domain.RateTable) { rt.Rates["CHF"] = dec("-0.9") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := sampleTable()
			tt.mutate(&table)
			assert.ErrorIs(t, table.Validate(), apperrors.ErrValidation)
		})
	}
}

func TestRateTable_RowsRegroup(t *testing.T) {
	table := sampleTable()
	recordedAt := time.Date(2024, 12, 25, 8, 30, 0, 0, time.UTC)

	rows := table.Rows(recordedAt)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, "EUR", row.BaseCurrency)
		assert.Equal(t, recordedAt, row.RecordedAt)
	}

	foreign := domain.CachedRateRow{
		Date:           table.Date,
		BaseCurrency:   "USD",
		TargetCurrency: "JPY",
		Rate:           dec("150"),
	}
	regrouped := domain.RateTableFromRows(table.Date, "EUR", append(rows, foreign))

	assert.Equal(t, "EUR", regrouped.BaseCurrency)
	require.Len(t, regrouped.Rates, 3)
	for code, rate := range table.Rates {
		assert.True(t, rate.Equal(regrouped.Rates[code]), code)
	}
}

func TestNormalizeAndParseDate(t *testing.T) {
	local := time.Date(2024, 12, 24, 23, 15, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC), domain.NormalizeDate(local))

	parsed, err := domain.ParseDate("2024-12-24")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-24", parsed.Format(domain.DateLayout))

	_, err = domain.ParseDate("24/12/2024")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCurrencySet(t *testing.T) {
	set := domain.NewCurrencySet(" usd", "EUR", "", "USD")
	assert.True(t, set.Contains("USD"))
	assert.True(t, set.Contains("EUR"))
	assert.False(t, set.Contains("GBP"))
	assert.Equal(t, []string{"EUR", "USD"}, set.Codes())

	var empty domain.CurrencySet
	assert.False(t, empty.Contains("USD"))
	assert.Equal(t, 0, empty.Len())
}

func TestExchangeRatesSettings_Validate(t *testing.T) {
	valid := domain.ExchangeRatesSettings{
		CanonicalBase:    "USD",
		FallbackCurrency: "EUR",
		UnsupportedBases: domain.NewCurrencySet("USD"),
		Rounding:         domain.RoundingPolicy{Scale: 6, Mode: domain.RoundHalfUp},
	}
	require.NoError(t, valid.Validate())

	badCanonical := valid
	badCanonical.CanonicalBase = "usd"
	assert.ErrorIs(t, badCanonical.Validate(), apperrors.ErrInvalidConfiguration)

	fallbackUnsupported := valid
	fallbackUnsupported.UnsupportedBases = domain.NewCurrencySet("USD", "EUR")
	assert.ErrorIs(t, fallbackUnsupported.Validate(), apperrors.ErrInvalidConfiguration)

	badScale := valid
	badScale.Rounding.Scale = 0
	assert.ErrorIs(t, badScale.Validate(), apperrors.ErrInvalidConfiguration)
}
