// Package cache provides the time-windowed caches used by the ranking engines.
//
// Values are stored as JSON bytes so the same computation can be cached in process or in Redis.
// Entries may carry tags; invalidating a tag drops every entry stored under it.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Cache stores encoded values with a TTL and optional tags.
type Cache interface {
	// Get returns the stored bytes, or false when missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl and records key under every tag.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string)
	// InvalidateTag removes every entry stored with tag.
	InvalidateTag(ctx context.Context, tag string) error
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

// Key joins a function name and its arguments into a cache key.
func Key(name string, args ...any) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}

// Remember returns the cached value for key, or runs compute and caches its result.
// Errors from compute are returned and never cached. Concurrent misses may compute twice.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, tags []string, compute func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return compute(ctx)
	}

	if raw, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	if raw, err := json.Marshal(v); err == nil {
		c.Set(ctx, key, raw, ttl, tags...)
	}
	return v, nil
}

// Nop never stores anything; every Remember call computes.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool)                   { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration, ...string) {}
func (Nop) InvalidateTag(context.Context, string) error                  { return nil }
