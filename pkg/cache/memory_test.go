package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oms/pkg/cache"

	"github.com/stretchr/testify/assert"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrMiss)

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	assert.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemory_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemory_ExpiredReadDoesNotEvictFreshWrite(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		c := cache.NewMemory()
		assert.NoError(t, c.Set(ctx, "k", []byte("stale"), time.Nanosecond))
		time.Sleep(time.Millisecond)

		// A Get observing the expired entry races a Set replacing it. The
		// eviction must never take the fresh entry with it.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "k")
		}()
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "k", []byte("fresh"), 0)
		}()
		wg.Wait()

		got, err := c.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Equal(t, []byte("fresh"), got)
	}
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	assert.NoError(t, c.Set(ctx, "products:list:1", []byte("a"), 0))
	assert.NoError(t, c.Set(ctx, "products:list:2", []byte("b"), 0))
	assert.NoError(t, c.Set(ctx, "categories:all", []byte("c"), 0))

	assert.NoError(t, c.DeletePrefix(ctx, "products:"))

	_, err := c.Get(ctx, "products:list:1")
	assert.ErrorIs(t, err, cache.ErrMiss)
	_, err = c.Get(ctx, "products:list:2")
	assert.ErrorIs(t, err, cache.ErrMiss)

	got, err := c.Get(ctx, "categories:all")
	assert.NoError(t, err)
	assert.Equal(t, []byte("c"), got)
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	got, err := cache.Remember(ctx, c, "k", time.Minute, load)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, calls)

	// Second read is served from the cache.
	got, err = cache.Remember(ctx, c, "k", time.Minute, load)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, calls)
}

func TestRemember_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	boom := errors.New("db down")
	_, err := cache.Remember(ctx, c, "k", time.Minute, func() (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestRemember_NilCache(t *testing.T) {
	got, err := cache.Remember[int](context.Background(), nil, "k", time.Minute, func() (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)
}
