package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// SeriesCache caches whole candle series in Redis so repeated runs over
// the same (coin, timeframe) window skip the load step. A cache failure is
// never fatal: callers fall through to the source of record.
type SeriesCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewSeriesCache creates a candle-series cache on the given Redis instance.
func NewSeriesCache(addr, password string, db int, ttl time.Duration) *SeriesCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return &SeriesCache{
		client:    client,
		keyPrefix: "cryptonew:candles:",
		ttl:       ttl,
	}
}

// Get returns the cached series for a (coin, timeframe) pair, with ok
// reporting a cache hit.
func (c *SeriesCache) Get(ctx context.Context, coin, timeframe string) ([]models.Candle, bool) {
	data, err := c.client.Get(ctx, c.key(coin, timeframe)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("coin", coin).Msg("candle cache read failed")
		return nil, false
	}

	var candles []models.Candle
	if err := json.Unmarshal(data, &candles); err != nil {
		log.Warn().Err(err).Str("coin", coin).Msg("candle cache entry corrupt, ignoring")
		return nil, false
	}
	return candles, true
}

// Put stores a series for a (coin, timeframe) pair with the cache TTL.
func (c *SeriesCache) Put(ctx context.Context, coin, timeframe string, candles []models.Candle) error {
	data, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("failed to marshal candle series: %w", err)
	}

	if err := c.client.Set(ctx, c.key(coin, timeframe), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache candle series: %w", err)
	}
	return nil
}

// Health pings the Redis instance.
func (c *SeriesCache) Health(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Close releases the Redis connection pool.
func (c *SeriesCache) Close() error {
	return c.client.Close()
}

func (c *SeriesCache) key(coin, timeframe string) string {
	return c.keyPrefix + coin + ":" + timeframe
}
