package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_rates_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_rates_service/internal/core/ports/services"
	"github.com/SscSPs/exchange_rates_service/internal/platform/metrics"
	"golang.org/x/sync/singleflight"
)

// RateOrchestrator answers latest and historical rate queries for any base currency.
// Historical snapshots are cached under the canonical base only and rebased on the way out.
type RateOrchestrator struct {
	BaseService
	settings domain.ExchangeRatesSettings
	source   portssvc.RateSource
	cache    portsrepo.RateCache
	policy   portssvc.CurrencyPolicySvc
	rebaser  portssvc.CurrencyRebaserSvc
	metrics  *metrics.Metrics

	// one exists/fetch/store sequence per (date, canonical base) at a time
	flights singleflight.Group
}

// RateOrchestratorOption is a functional option for configuring the orchestrator
type RateOrchestratorOption func(*RateOrchestrator)

// WithMetrics records cache and upstream outcomes on m
func WithMetrics(m *metrics.Metrics) RateOrchestratorOption {
	return func(o *RateOrchestrator) {
		o.metrics = m
	}
}

// NewRateOrchestrator creates a RateOrchestrator over source and cache.
func NewRateOrchestrator(
	settings domain.ExchangeRatesSettings,
	source portssvc.RateSource,
	cache portsrepo.RateCache,
	options ...RateOrchestratorOption,
) *RateOrchestrator {
	o := &RateOrchestrator{
		settings: settings,
		source:   source,
		cache:    cache,
		policy:   NewCurrencyPolicy(settings),
		rebaser:  NewCurrencyRebaser(settings.Rounding),
	}
	for _, option := range options {
		option(o)
	}
	return o
}

// GetLatest fetches current rates and rebases them to requestedBase. Latest rates are never cached.
func (o *RateOrchestrator) GetLatest(ctx context.Context, requestedBase string) (*domain.RateTable, error) {
	queryBase := o.resolveQueryBase(ctx, requestedBase)

	table, err := o.source.FetchLatest(ctx, queryBase)
	o.metrics.RecordUpstreamFetch(metrics.FetchLatest, err)
	if err != nil {
		o.LogWarn(ctx, err, "Failed to fetch latest rates", slog.String("query_base", queryBase))
		return nil, err
	}

	return o.rebaseTo(ctx, *table, requestedBase)
}

// GetForDate returns the rates for date relative to requestedBase.
// The snapshot is looked up, fetched and stored under the canonical base whatever base is requested.
func (o *RateOrchestrator) GetForDate(ctx context.Context, requestedBase string, date time.Time) (*domain.RateTable, error) {
	date = domain.NormalizeDate(date)

	snapshot, err := o.canonicalSnapshot(ctx, date)
	if err != nil {
		return nil, err
	}

	return o.rebaseTo(ctx, snapshot, requestedBase)
}

func (o *RateOrchestrator) canonicalSnapshot(ctx context.Context, date time.Time) (domain.RateTable, error) {
	canonical := o.settings.CanonicalBase
	key := date.Format(domain.DateLayout) + "|" + canonical

	// the shared work must not die with whichever caller happened to start it
	flightCtx := context.WithoutCancel(ctx)
	ch := o.flights.DoChan(key, func() (any, error) {
		return o.loadOrFetch(flightCtx, date, canonical)
	})

	select {
	case <-ctx.Done():
		return domain.RateTable{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.RateTable{}, res.Err
		}
		return res.Val.(domain.RateTable), nil
	}
}

func (o *RateOrchestrator) loadOrFetch(ctx context.Context, date time.Time, canonical string) (domain.RateTable, error) {
	exists, err := o.cache.Exists(ctx, date, canonical)
	if err != nil {
		o.LogError(ctx, err, "Failed to check rate snapshot", slog.Time("date", date), slog.String("base", canonical))
		return domain.RateTable{}, err
	}
	o.metrics.RecordCacheLookup(exists)

	if exists {
		o.LogDebug(ctx, "Serving rate snapshot from cache", slog.Time("date", date), slog.String("base", canonical))
		table, err := o.cache.Load(ctx, date, canonical)
		if err != nil {
			o.LogError(ctx, err, "Failed to load rate snapshot", slog.Time("date", date), slog.String("base", canonical))
			return domain.RateTable{}, err
		}
		return *table, nil
	}

	queryBase := o.resolveQueryBase(ctx, canonical)
	fetched, err := o.source.FetchForDate(ctx, queryBase, date)
	o.metrics.RecordUpstreamFetch(metrics.FetchHistorical, err)
	if err != nil {
		o.LogWarn(ctx, err, "Failed to fetch historical rates", slog.Time("date", date), slog.String("query_base", queryBase))
		return domain.RateTable{}, err
	}

	snapshot := *fetched
	if queryBase != canonical {
		snapshot, err = o.rebaser.Rebase(snapshot, canonical)
		o.metrics.RecordRebase(err)
		if err != nil {
			o.LogError(ctx, err, "Failed to rebase fetched rates to canonical base", slog.String("from", queryBase), slog.String("to", canonical))
			return domain.RateTable{}, err
		}
		// rates below the rounding scale come out as zero and cannot be stored
		var dropped []string
		snapshot, dropped = snapshot.PositiveOnly()
		if len(dropped) > 0 {
			o.GetLogger(ctx).Warn("Dropping rates that round to zero",
				slog.String("base", canonical),
				slog.Any("currencies", dropped),
				slog.Int("scale", int(o.settings.Rounding.Scale)))
		}
	}
	// keyed by the requested date so the next Exists for it hits
	snapshot.Date = date

	if err := o.cache.Store(ctx, snapshot); err != nil {
		if !errors.Is(err, apperrors.ErrCacheStore) {
			err = apperrors.NewCacheStoreError("failed to store rate snapshot", err)
		}
		o.LogError(ctx, err, "Failed to store rate snapshot", slog.Time("date", date), slog.String("base", canonical))
		return domain.RateTable{}, err
	}

	o.LogInfo(ctx, "Stored rate snapshot",
		slog.Time("date", date),
		slog.String("base", canonical),
		slog.Int("rates", len(snapshot.Rates)))
	return snapshot, nil
}

func (o *RateOrchestrator) resolveQueryBase(ctx context.Context, desired string) string {
	queryBase := o.policy.ResolveQueryBase(desired)
	if queryBase != desired {
		o.LogDebug(ctx, "Base currency not supported upstream, querying fallback",
			slog.String("desired", desired),
			slog.String("query_base", queryBase))
	}
	return queryBase
}

// rebaseTo always returns a fresh table; snapshots shared between callers stay untouched.
func (o *RateOrchestrator) rebaseTo(ctx context.Context, table domain.RateTable, targetBase string) (*domain.RateTable, error) {
	if table.BaseCurrency == targetBase {
		out := table.Clone()
		return &out, nil
	}

	rebased, err := o.rebaser.Rebase(table, targetBase)
	o.metrics.RecordRebase(err)
	if err != nil {
		o.LogWarn(ctx, err, "Failed to rebase rates",
			slog.String("from", table.BaseCurrency),
			slog.String("to", targetBase))
		return nil, err
	}
	return &rebased, nil
}

var _ portssvc.RateOrchestratorSvc = (*RateOrchestrator)(nil)
