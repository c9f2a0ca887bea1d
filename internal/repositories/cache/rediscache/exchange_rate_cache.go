package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/exchange_rates_service/internal/apperrors"
	"github.com/SscSPs/exchange_rates_service/internal/core/domain"
	portsrepo "github.com/SscSPs/exchange_rates_service/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultKeyPrefix = "exchange_rates"

// RedisExchangeRateCache stores each (date, base) snapshot as one hash of target -> rate.
type RedisExchangeRateCache struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisExchangeRateCache creates a RedisExchangeRateCache. A zero ttl keeps snapshots forever.
func NewRedisExchangeRateCache(client redis.UniversalClient, ttl time.Duration) *RedisExchangeRateCache {
	return &RedisExchangeRateCache{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (c *RedisExchangeRateCache) ratesKey(date time.Time, base string) string {
	return fmt.Sprintf("%s:%s:%s", c.keyPrefix, domain.NormalizeDate(date).Format(domain.DateLayout), base)
}

func (c *RedisExchangeRateCache) recordedAtKey(date time.Time, base string) string {
	return c.ratesKey(date, base) + ":recorded_at"
}

// Exists reports whether a snapshot hash is present for (date, base).
func (c *RedisExchangeRateCache) Exists(ctx context.Context, date time.Time, baseCurrency string) (bool, error) {
	n, err := c.client.Exists(ctx, c.ratesKey(date, baseCurrency)).Result()
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check exchange rates in redis", err)
	}
	return n > 0, nil
}

// Load reads the snapshot hash for (date, base).
func (c *RedisExchangeRateCache) Load(ctx context.Context, date time.Time, baseCurrency string) (*domain.RateTable, error) {
	fields, err := c.client.HGetAll(ctx, c.ratesKey(date, baseCurrency)).Result()
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to load exchange rates from redis", err)
	}
	if len(fields) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no exchange rates cached for %s on %s", baseCurrency, date.Format(domain.DateLayout)))
	}

	rates := make(map[string]decimal.Decimal, len(fields))
	for code, raw := range fields {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperrors.NewAppError(500, "corrupt cached rate for "+code, err)
		}
		rates[code] = rate
	}

	return &domain.RateTable{
		BaseCurrency: baseCurrency,
		Date:         domain.NormalizeDate(date),
		Rates:        rates,
	}, nil
}

// Store writes the snapshot in one MULTI/EXEC. HSETNX keeps rates already cached for a target.
func (c *RedisExchangeRateCache) Store(ctx context.Context, table domain.RateTable) error {
	if err := table.Validate(); err != nil {
		return err
	}

	key := c.ratesKey(table.Date, table.BaseCurrency)
	recordedAtKey := c.recordedAtKey(table.Date, table.BaseCurrency)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for code, rate := range table.Rates {
			pipe.HSetNX(ctx, key, code, rate.String())
		}
		pipe.SetNX(ctx, recordedAtKey, c.now().UTC().Format(time.RFC3339), 0)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
			pipe.Expire(ctx, recordedAtKey, c.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewCacheStoreError("failed to store exchange rates in redis", err)
	}
	return nil
}

var _ portsrepo.RateCache = (*RedisExchangeRateCache)(nil)
