package metrics

import (
	"errors"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch kinds used as the "kind" label of upstream metrics.
const (
	FetchLatest     = "latest"
	FetchHistorical = "historical"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CacheLookupsTotal    *prometheus.CounterVec
	UpstreamFetchesTotal *prometheus.CounterVec
	RebasesTotal         *prometheus.CounterVec
}

// NewMetrics registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_class"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_cache_lookups_total",
				Help: "Historical snapshot lookups by result (hit or miss)",
			},
			[]string{"result"},
		),

		UpstreamFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_upstream_fetches_total",
				Help: "Calls to the upstream rate provider by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		RebasesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rates_rebase_total",
				Help: "Rate table rebase operations by result",
			},
			[]string{"result"},
		),
	}
}

// RecordCacheLookup counts a snapshot cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordUpstreamFetch counts an upstream call, classified by its error.
func (m *Metrics) RecordUpstreamFetch(kind string, err error) {
	if m == nil {
		return
	}
	m.UpstreamFetchesTotal.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordRebase counts a rebase, successful or not.
func (m *Metrics) RecordRebase(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "target_not_found"
		if !errors.Is(err, apperrors.ErrTargetCurrencyNotFound) {
			result = "error"
		}
	}
	m.RebasesTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts a served request and observes its duration.
func (m *Metrics) RecordHTTPRequest(path, method, statusClass string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(path, method, statusClass).Inc()
	m.HTTPRequestDuration.WithLabelValues(path, method).Observe(seconds)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrUpstreamClient):
		return "client_error"
	case errors.Is(err, apperrors.ErrUpstreamServer):
		return "server_error"
	default:
		return "error"
	}
}
