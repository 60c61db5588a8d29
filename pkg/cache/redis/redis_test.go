package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("RECALL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RECALL_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis is not available at %s: %v", addr, err)
	}
	return client
}

func TestCache_RoundTrip(t *testing.T) {
	client := requireRedisClient(t)
	c := New(client, fmt.Sprintf("recall:test:%d:", time.Now().UnixNano()), nil)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Put(ctx, "k", []byte("value"), time.Minute)
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", string(v))
}

type recordingLogger struct{ warnings int }

func (l *recordingLogger) Warn(string, ...any) { l.warnings++ }

func TestCache_UnreachableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	log := &recordingLogger{}
	c := New(client, "", log)
	t.Cleanup(func() { _ = c.Close() })

	c.Put(context.Background(), "k", []byte("v"), time.Minute)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, 2, log.warnings)
}
