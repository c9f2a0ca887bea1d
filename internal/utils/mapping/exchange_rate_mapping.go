package mapping

import (
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/SscSPs/exchange_rates_service/internal/models"
)

// ToModelExchangeRate converts a domain CachedRateRow to a model ExchangeRate
func ToModelExchangeRate(d domain.CachedRateRow) models.ExchangeRate {
	return models.ExchangeRate{
		Date:           domain.NormalizeDate(d.Date),
		BaseCurrency:   d.BaseCurrency,
		TargetCurrency: d.TargetCurrency,
		Rate:           d.Rate,
		CreatedAt:      d.RecordedAt,
	}
}

// ToDomainCachedRateRow converts a model ExchangeRate to a domain CachedRateRow
func ToDomainCachedRateRow(m models.ExchangeRate) domain.CachedRateRow {
	return domain.CachedRateRow{
		Date:           domain.NormalizeDate(m.Date),
		BaseCurrency:   m.BaseCurrency,
		TargetCurrency: m.TargetCurrency,
		Rate:           m.Rate,
		RecordedAt:     m.CreatedAt,
	}
}

// ToModelExchangeRates explodes a rate table into one model row per target currency
func ToModelExchangeRates(table domain.RateTable, recordedAt time.Time) []models.ExchangeRate {
	rows := table.Rows(recordedAt)
	out := make([]models.ExchangeRate, len(rows))
	for i, row := range rows {
		out[i] = ToModelExchangeRate(row)
	}
	return out
}

// ToDomainRateTable regroups the model rows stored for (date, base) into a rate table
func ToDomainRateTable(date time.Time, base string, rows []models.ExchangeRate) domain.RateTable {
	domainRows := make([]domain.CachedRateRow, len(rows))
	for i, row := range rows {
		domainRows[i] = ToDomainCachedRateRow(row)
	}
	return domain.RateTableFromRows(date, base, domainRows)
}
