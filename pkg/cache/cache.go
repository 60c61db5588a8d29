// Package cache defines the advisory key/value cache used to avoid redundant
// generator calls. A miss is never an error: callers simply recompute.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a time-to-live.
type Cache interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key for ttl. Failures are swallowed.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Nop is a cache that never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Put discards the value.
func (Nop) Put(context.Context, string, []byte, time.Duration) {}
