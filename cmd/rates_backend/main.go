package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/connectors/fixer"
	portsrepo "github.com/SscSPs/exchange_rates_service/internal/core/ports/repositories"
	"github.com/SscSPs/exchange_rates_service/internal/core/services"
	"github.com/SscSPs/exchange_rates_service/internal/handlers"
	"github.com/SscSPs/exchange_rates_service/internal/middleware"
	"github.com/SscSPs/exchange_rates_service/internal/platform/config"
	"github.com/SscSPs/exchange_rates_service/internal/platform/metrics"
	"github.com/SscSPs/exchange_rates_service/internal/repositories/cache/rediscache"
	"github.com/SscSPs/exchange_rates_service/internal/repositories/database/pgsql"
	"github.com/SscSPs/exchange_rates_service/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const shutdownTimeout = 10 * time.Second

// @title Exchange Rates API
// @version 1.0
// @description Daily exchange rates for any base currency, backed by the Fixer API with a historical snapshot cache.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	logLevel := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logger.Warn("Unknown log level, keeping info", slog.String("level", cfg.LogLevel))
	}

	settings, err := cfg.ExchangeRatesSettings()
	if err != nil {
		logger.Error("Invalid exchange rate settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
		}()
	}

	var repos portsrepo.RepositoryProvider
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		repos = portsrepo.RepositoryProvider{
			RateCache: rediscache.NewRedisExchangeRateCache(redisClient, cfg.RedisSnapshotTTL),
		}
		logger.Info("Using redis snapshot cache")
	default:
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool, logger)
		repos = pgsql.NewRepositoryProvider(dbPool)
		logger.Info("Using postgres snapshot cache")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	rateSource := fixer.NewClient(fixer.Config{
		BaseURL:       cfg.FixerURL,
		APIKey:        cfg.FixerAPIKey,
		Timeout:       cfg.FixerTimeout,
		RetryAttempts: cfg.FixerRetryAttempts,
		RetryDelay:    cfg.FixerRetryDelay,
	}, logger.With(slog.String("component", "fixer")))

	serviceContainer := services.NewServiceContainer(settings, repos, rateSource, appMetrics)

	rateLimiter, err := newRateLimiter(cfg, redisClient)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, metrics, cors)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.MetricsMiddleware(appMetrics),
		cors.New(corsConfig(cfg.CORSAllowedOrigins)),
	)

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped")
}

func newRateLimiter(cfg *config.Config, redisClient *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimitStore == config.RateLimitStoreRedis {
		store, err := sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:   "rates_limiter",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, err
		}
		return limiter.New(store, rate), nil
	}

	return limiter.New(memory.NewStore(), rate), nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	c.AllowHeaders = append(c.AllowHeaders, "X-Request-ID")
	c.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
