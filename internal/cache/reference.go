package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/fishfarm/internal/config"
)

// Reference data cache keys.
const (
	PondsKey   = "fishfarm:ref:ponds"
	SpeciesKey = "fishfarm:ref:species"
)

// ReferenceCache stores slowly changing backend reference data (ponds,
// species) in Redis. A nil or disabled cache misses every lookup and ignores
// writes so callers fall through to the backend.
type ReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis when configured. A failed ping closes the client and
// returns a disabled cache together with the error so the caller can log it
// and continue without caching.
func New(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*ReferenceCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := &ReferenceCache{ttl: cfg.TTL, logger: logger}
	if !cfg.Enabled() {
		return rc, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return rc, fmt.Errorf("ping redis: %w", err)
	}

	rc.client = client
	return rc, nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ReferenceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceCache{client: client, ttl: ttl, logger: logger}
}

// Enabled reports whether lookups can hit Redis.
func (c *ReferenceCache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes a cached value into dest. It reports false on a miss, when
// the cache is disabled, or when the cached bytes no longer decode.
func (c *ReferenceCache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key for the configured TTL.
func (c *ReferenceCache) SetJSON(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the given keys.
func (c *ReferenceCache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Close releases the Redis connection.
func (c *ReferenceCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
