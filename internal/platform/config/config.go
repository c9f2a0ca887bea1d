package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"

	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	Port         string `validate:"required,numeric"`
	IsProduction bool
	LogLevel     string `validate:"oneof=debug info warn error"`

	DatabaseURL    string `validate:"required_if=CacheBackend postgres"`
	MigrationsPath string `validate:"required_if=CacheBackend postgres"`

	CacheBackend     string        `validate:"oneof=postgres redis"`
	RedisURL         string        `validate:"required_if=CacheBackend redis"`
	RedisSnapshotTTL time.Duration `validate:"gte=0"`

	FixerURL           string        `validate:"required,url"`
	FixerAPIKey        string
	FixerTimeout       time.Duration `validate:"gt=0"`
	FixerRetryAttempts uint          `validate:"gte=1,lte=10"`
	FixerRetryDelay    time.Duration `validate:"gte=0"`

	CanonicalBase    string   `validate:"len=3,uppercase,alpha"`
	FallbackCurrency string   `validate:"len=3,uppercase,alpha"`
	UnsupportedBases []string `validate:"dive,len=3,uppercase,alpha"`
	RoundingScale    int32    `validate:"gte=1,lte=12"`
	RoundingMode     string   `validate:"required"`

	RateLimit          string `validate:"required"`
	RateLimitStore     string `validate:"oneof=memory redis"`
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("CACHE_BACKEND", CacheBackendPostgres)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_SNAPSHOT_TTL", "0s")
	viper.SetDefault("FIXER_URL", "http://data.fixer.io/api")
	viper.SetDefault("FIXER_API_KEY", "")
	viper.SetDefault("FIXER_TIMEOUT", "10s")
	viper.SetDefault("FIXER_RETRY_ATTEMPTS", 3)
	viper.SetDefault("FIXER_RETRY_DELAY", "200ms")
	viper.SetDefault("RATES_CANONICAL_BASE", "USD")
	viper.SetDefault("RATES_FALLBACK_CURRENCY", "EUR")
	viper.SetDefault("RATES_UNSUPPORTED_BASES", "USD")
	viper.SetDefault("RATES_ROUNDING_SCALE", 6)
	viper.SetDefault("RATES_ROUNDING_MODE", string(domain.RoundHalfUp))
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("RATE_LIMIT_STORE", RateLimitStoreMemory)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Environment variables override .env values, which override the defaults above.
	viper.AutomaticEnv()

	cfg := &Config{
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		LogLevel:           strings.ToLower(viper.GetString("LOG_LEVEL")),
		DatabaseURL:        viper.GetString("PGSQL_URL"),
		MigrationsPath:     viper.GetString("MIGRATIONS_PATH"),
		CacheBackend:       strings.ToLower(viper.GetString("CACHE_BACKEND")),
		RedisURL:           viper.GetString("REDIS_URL"),
		RedisSnapshotTTL:   viper.GetDuration("REDIS_SNAPSHOT_TTL"),
		FixerURL:           viper.GetString("FIXER_URL"),
		FixerAPIKey:        viper.GetString("FIXER_API_KEY"),
		FixerTimeout:       viper.GetDuration("FIXER_TIMEOUT"),
		FixerRetryAttempts: viper.GetUint("FIXER_RETRY_ATTEMPTS"),
		FixerRetryDelay:    viper.GetDuration("FIXER_RETRY_DELAY"),
		CanonicalBase:      strings.ToUpper(strings.TrimSpace(viper.GetString("RATES_CANONICAL_BASE"))),
		FallbackCurrency:   strings.ToUpper(strings.TrimSpace(viper.GetString("RATES_FALLBACK_CURRENCY"))),
		UnsupportedBases:   splitList(strings.ToUpper(viper.GetString("RATES_UNSUPPORTED_BASES"))),
		RoundingScale:      viper.GetInt32("RATES_ROUNDING_SCALE"),
		RoundingMode:       strings.ToUpper(viper.GetString("RATES_ROUNDING_MODE")),
		RateLimit:          viper.GetString("RATE_LIMIT"),
		RateLimitStore:     strings.ToLower(viper.GetString("RATE_LIMIT_STORE")),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfiguration, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfiguration, err)
	}

	if c.RateLimitStore == RateLimitStoreRedis && c.RedisURL == "" {
		return fmt.Errorf("%w: REDIS_URL is required when RATE_LIMIT_STORE is redis", apperrors.ErrInvalidConfiguration)
	}

	_, err := c.ExchangeRatesSettings()
	return err
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.CacheBackend == CacheBackendRedis || c.RateLimitStore == RateLimitStoreRedis
}

// ExchangeRatesSettings builds the domain settings from the RATES_* keys.
func (c *Config) ExchangeRatesSettings() (domain.ExchangeRatesSettings, error) {
	mode, err := domain.ParseRoundingMode(c.RoundingMode)
	if err != nil {
		return domain.ExchangeRatesSettings{}, fmt.Errorf("%w: RATES_ROUNDING_MODE: %v", apperrors.ErrInvalidConfiguration, err)
	}

	settings := domain.ExchangeRatesSettings{
		CanonicalBase:    c.CanonicalBase,
		FallbackCurrency: c.FallbackCurrency,
		UnsupportedBases: domain.NewCurrencySet(c.UnsupportedBases...),
		Rounding:         domain.RoundingPolicy{Scale: c.RoundingScale, Mode: mode},
	}
	if err := settings.Validate(); err != nil {
		return domain.ExchangeRatesSettings{}, err
	}
	return settings, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
