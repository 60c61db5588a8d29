package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_PutGetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	c.Put(ctx, "k", []byte("v"), 10*time.Minute)
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(10 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ValuesAreCopied(t *testing.T) {
	c := New()
	ctx := context.Background()

	buf := []byte("abc")
	c.Put(ctx, "k", buf, time.Minute)
	buf[0] = 'x'

	v, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestCache_IgnoresNonPositiveTTL(t *testing.T) {
	c := New()
	c.Put(context.Background(), "k", []byte("v"), 0)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestCache_MaxEntriesEvictsSoonestExpiry(t *testing.T) {
	c := New(WithMaxEntries(2))
	ctx := context.Background()

	c.Put(ctx, "short", []byte("1"), time.Minute)
	c.Put(ctx, "long", []byte("2"), time.Hour)
	c.Put(ctx, "new", []byte("3"), time.Hour)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "long")
	assert.True(t, ok)
}
