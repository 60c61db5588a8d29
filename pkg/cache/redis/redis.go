// Package redis provides a Redis-backed cache.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Logger is the subset of logging used by the cache.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// Cache stores values in Redis with SET EX. Redis errors are logged and
// treated as misses.
type Cache struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    Logger
}

// New creates a cache over an existing client.
func New(client redis.UniversalClient, keyPrefix string, logger Logger) *Cache {
	if keyPrefix == "" {
		keyPrefix = "recall:cache:"
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Cache{client: client, keyPrefix: keyPrefix, logger: logger}
}

// Get fetches key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return v, true
}

// Put stores key with an expiry.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache put failed", "key", key, "error", err)
	}
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
