package services

import (
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_rates_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/exchange_rates_service/internal/core/ports/services"
	"github.com/SscSPs/exchange_rates_service/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	settings domain.ExchangeRatesSettings,
	repos portsrepo.RepositoryProvider,
	source portssvc.RateSource,
	m *metrics.Metrics,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Rates = NewRateOrchestrator(settings, source, repos.RateCache, WithMetrics(m))

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.CurrencyPolicySvc  = (*CurrencyPolicy)(nil)
	_ portssvc.CurrencyRebaserSvc = (*CurrencyRebaser)(nil)
)
