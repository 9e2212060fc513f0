package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderCache(t *testing.T) {
	ctx := context.Background()
	calls := 0
	now := time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)
	c := New(
		WithLoader(func(_ context.Context, k string) (*int, error) {
			calls++
			if k == "bad" {
				return nil, errors.New("boom")
			}
			v := len(k)
			return &v, nil
		}),
		WithExpiration[string, int](time.Minute),
		withClock[string, int](func() time.Time { return now }),
	)

	v, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, *v)
	_, _ = c.Get(ctx, "abc")
	assert.Equal(t, 1, calls, "second get should be served from cache")

	c.Invalidate(ctx, "abc")
	_, _ = c.Get(ctx, "abc")
	assert.Equal(t, 2, calls)

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(ctx, "abc")
	assert.Equal(t, 3, calls, "expired entry should be reloaded")

	_, err = c.Get(ctx, "bad")
	require.Error(t, err)
	_, err = c.Get(ctx, "bad")
	require.Error(t, err)
	assert.Equal(t, 5, calls, "errors must not be cached")

	assert.Equal(t, 1, c.Len())
	c.InvalidateAll(ctx)
	assert.Equal(t, 0, c.Len())
	_, _ = c.Get(ctx, "abc")
	assert.Equal(t, 6, calls)
}

func TestLoaderCache_NoExpiration(t *testing.T) {
	ctx := context.Background()
	calls := 0
	now := time.Now()
	c := New(
		WithLoader(func(_ context.Context, k int) (*int, error) {
			calls++
			return &k, nil
		}),
		WithExpiration[int, int](0),
		withClock[int, int](func() time.Time { return now }),
	)
	_, _ = c.Get(ctx, 1)
	now = now.Add(24 * time.Hour)
	_, _ = c.Get(ctx, 1)
	assert.Equal(t, 1, calls)
}

func TestLoaderCache_WithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLoaderCache_LoadDoesNotBlockOtherKeys(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(
		WithLoader(func(_ context.Context, k string) (*string, error) {
			if k == "slow" {
				close(started)
				<-release
			}
			return &k, nil
		}),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.Get(ctx, "slow")
		assert.NoError(t, err)
		assert.Equal(t, "slow", *v)
	}()
	<-started

	v, err := c.Get(ctx, "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", *v)

	close(release)
	<-done
	assert.Equal(t, 2, c.Len())
}

func TestLoaderCache_InvalidateDuringLoad(t *testing.T) {
	ctx := context.Background()
	var c *Cache[string, int]
	calls := 0
	c = New(
		WithLoader(func(ctx context.Context, k string) (*int, error) {
			calls++
			if calls == 1 {
				// the entry changes while it is read
				c.Invalidate(ctx, k)
			}
			return &calls, nil
		}),
	)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len(), "stale load must not be cached")
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, c.Len())
}
