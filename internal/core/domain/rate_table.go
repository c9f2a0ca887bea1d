package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in cache keys.
const DateLayout = "2006-01-02"

// RateTable is a snapshot of rates relative to one base currency on one date:
// 1 unit of BaseCurrency buys Rates[c] units of c.
type RateTable struct {
	BaseCurrency string                     `json:"base"`
	Date         time.Time                  `json:"date"`
	Rates        map[string]decimal.Decimal `json:"rates"`
}

// NormalizeDate drops the time of day, keeping the calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", apperrors.ErrValidation, s)
	}
	return t, nil
}

// Clone returns a deep copy; the rates map is not shared.
func (t RateTable) Clone() RateTable {
	rates := make(map[string]decimal.Decimal, len(t.Rates))
	for code, rate := range t.Rates {
		rates[code] = rate
	}
	return RateTable{BaseCurrency: t.BaseCurrency, Date: t.Date, Rates: rates}
}

// Rate returns the rate for code, if present.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t.Rates[code]
	return rate, ok
}

// PositiveOnly returns a copy without the rates that are zero or negative, plus the codes it dropped.
func (t RateTable) PositiveOnly() (RateTable, []string) {
	out := RateTable{BaseCurrency: t.BaseCurrency, Date: t.Date, Rates: make(map[string]decimal.Decimal, len(t.Rates))}
	var dropped []string
	for code, rate := range t.Rates {
		if !rate.IsPositive() {
			dropped = append(dropped, code)
			continue
		}
		out.Rates[code] = rate
	}
	sort.Strings(dropped)
	return out, dropped
}

// Validate checks the table invariants: known base, non-empty rates, valid codes, positive values.
func (t RateTable) Validate() error {
	if !IsCurrencyCode(t.BaseCurrency) {
		return fmt.Errorf("%w: invalid base currency %q", apperrors.ErrValidation, t.BaseCurrency)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: rate table for %s has no date", apperrors.ErrValidation, t.BaseCurrency)
	}
	if len(t.Rates) == 0 {
		return fmt.Errorf("%w: rate table for %s has no rates", apperrors.ErrValidation, t.BaseCurrency)
	}
	for code, rate := range t.Rates {
		if !IsCurrencyCode(code) {
			return fmt.Errorf("%w: invalid currency code %q", apperrors.ErrValidation, code)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("%w: rate for %s must be positive, got %s", apperrors.ErrValidation, code, rate)
		}
	}
	return nil
}

// CachedRateRow is one persisted fact: on Date, 1 BaseCurrency = Rate TargetCurrency.
type CachedRateRow struct {
	Date           time.Time
	BaseCurrency   string
	TargetCurrency string
	Rate           decimal.Decimal
	RecordedAt     time.Time
}

// Rows explodes the table into one row per target currency.
func (t RateTable) Rows(recordedAt time.Time) []CachedRateRow {
	rows := make([]CachedRateRow, 0, len(t.Rates))
	for code, rate := range t.Rates {
		rows = append(rows, CachedRateRow{
			Date:           NormalizeDate(t.Date),
			BaseCurrency:   t.BaseCurrency,
			TargetCurrency: code,
			Rate:           rate,
			RecordedAt:     recordedAt,
		})
	}
	return rows
}

// RateTableFromRows regroups the rows stored for (date, base) into a table.
// Rows for any other date or base are ignored.
func RateTableFromRows(date time.Time, base string, rows []CachedRateRow) RateTable {
	date = NormalizeDate(date)
	rates := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		if row.BaseCurrency != base || !NormalizeDate(row.Date).Equal(date) {
			continue
		}
		rates[row.TargetCurrency] = row.Rate
	}
	return RateTable{BaseCurrency: base, Date: date, Rates: rates}
}
