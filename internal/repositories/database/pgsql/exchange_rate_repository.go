package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_rates_service/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_rates_service/internal/models"
	"github.com/SscSPs/exchange_rates_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertExchangeRateSQL = `
	INSERT INTO exchange_rates (date, base_currency, target_currency, rate, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (date, base_currency, target_currency) DO NOTHING`

// PgxExchangeRateRepository implements the RateCache interface using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
	now func() time.Time
}

// NewPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func NewPgxExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
		now:            time.Now,
	}
}

// Exists reports whether any row is stored for (date, base).
func (r *PgxExchangeRateRepository) Exists(ctx context.Context, date time.Time, baseCurrency string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exchange_rates WHERE date = $1 AND base_currency = $2)`,
		domain.NormalizeDate(date), baseCurrency,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check exchange rates", err)
	}
	return exists, nil
}

// Load returns the table stored for (date, base).
func (r *PgxExchangeRateRepository) Load(ctx context.Context, date time.Time, baseCurrency string) (*domain.RateTable, error) {
	date = domain.NormalizeDate(date)
	query := `
		SELECT id, date, base_currency, target_currency, rate, created_at
		FROM exchange_rates
		WHERE date = $1 AND base_currency = $2
		ORDER BY target_currency;
	`

	rows, err := r.Pool.Query(ctx, query, date, baseCurrency)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to load exchange rates", err)
	}
	defer rows.Close()

	var modelRates []models.ExchangeRate
	for rows.Next() {
		var modelRate models.ExchangeRate
		err := rows.Scan(
			&modelRate.ID, &modelRate.Date, &modelRate.BaseCurrency,
			&modelRate.TargetCurrency, &modelRate.Rate, &modelRate.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		modelRates = append(modelRates, modelRate)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}

	if len(modelRates) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no exchange rates stored for %s on %s", baseCurrency, date.Format(domain.DateLayout)))
	}

	table := mapping.ToDomainRateTable(date, baseCurrency, modelRates)
	return &table, nil
}

// Store inserts one row per target currency in a single transaction.
// Rows already present for (date, base, target) are left as they are.
func (r *PgxExchangeRateRepository) Store(ctx context.Context, table domain.RateTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	modelRates := mapping.ToModelExchangeRates(table, r.now().UTC())

	tx, err := r.Begin(ctx)
	if err != nil {
		return apperrors.NewCacheStoreError("failed to store exchange rates", err)
	}
	defer func() { _ = r.Rollback(ctx, tx) }()

	batch := &pgx.Batch{}
	for _, rate := range modelRates {
		batch.Queue(insertExchangeRateSQL,
			rate.Date, rate.BaseCurrency, rate.TargetCurrency, rate.Rate, rate.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, rate := range modelRates {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return apperrors.NewCacheStoreError("failed to insert exchange rate "+rate.TargetCurrency, err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewCacheStoreError("failed to close exchange rate batch", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return apperrors.NewCacheStoreError("failed to store exchange rates", err)
	}
	return nil
}

var _ portsrepo.RateCacheWithTx = (*PgxExchangeRateRepository)(nil)
