package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/piclaim/pkg/logger"
)

const (
	// DefaultTTL is the default TTL for cached ledger passthrough responses
	DefaultTTL = 3 * time.Minute

	// KeyPrefix namespaces the passthrough cache keys
	KeyPrefix = "passthrough:"
)

// Cache is a Redis-backed cache of serialized ledger passthrough
// responses. Failures degrade to cache misses, never to request errors.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewCache creates a new passthrough cache
func NewCache(client *redis.Client, log *logger.Logger) *Cache {
	return NewCacheWithTTL(client, DefaultTTL, log)
}

// NewCacheWithTTL creates a new passthrough cache with custom TTL
func NewCacheWithTTL(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "cache"),
	}
}

// Get retrieves a cached response body
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache error", "operation", "get", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a response body. Errors are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, KeyPrefix+key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache error", "operation", "set", "key", key, "error", err)
	}
}

// Ping verifies connectivity
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
