// Package cache provides the read-side cache used by the catalog and
// dashboard endpoints. Backends share one interface so deployments can run
// on Redis or fully in-process; invalidation is scoped by key or prefix,
// never a global flush.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented cache with TTLs and scoped invalidation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix. Writers use it
	// to invalidate one entity's listings without touching anything else.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Remember returns the cached value under key, or computes it with fn and
// stores it for ttl. A nil cache degrades to calling fn directly. Cache
// errors are swallowed: the cache is an optimization, never a dependency.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if c != nil {
		if raw, err := c.Get(ctx, key); err == nil {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}
	}

	value, err := fn()
	if err != nil {
		return zero, err
	}

	if c != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = c.Set(ctx, key, raw, ttl)
		}
	}
	return value, nil
}
