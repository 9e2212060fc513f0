// Package loadercache is a read-through cache. Missing entries are filled by
// a loader function, entries live until they expire or are invalidated.
package loadercache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mpapenbr/swimprotocol/log"
)

// based on github.com/kittpat1413/go-common/framework/cache/localcache/localcache.go

var ErrCacheMiss = errors.New("cache miss")

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires time.Time // zero: never
	}
	LoaderFunc[K comparable, V any] func(context.Context, K) (*V, error)
	config[K comparable, V any]     struct {
		expiration time.Duration
		loader     LoaderFunc[K, V]
		l          *log.Logger
		now        func() time.Time
	}
	Cache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		config *config[K, V]
		// bumped by every invalidation, a load started before is not cached
		epoch uint64
	}
)

// WithExpiration sets the lifetime of an entry. 0 keeps entries until
// they are invalidated.
func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func withClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &config[K, V]{
		expiration: 5 * time.Minute,
		l:          log.Default().Named("cache"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return &Cache[K, V]{
		items:  make(map[K]item[*V]),
		config: c,
	}
}

// Get returns the cached entry or loads it. Load errors are not cached.
// The loader runs without holding the cache lock, concurrent misses of the
// same key may load twice.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	if cacheItem, ok := c.items[key]; ok {
		if cacheItem.expires.IsZero() || c.config.now().Before(cacheItem.expires) {
			c.mutex.Unlock()
			return cacheItem.data, nil
		}
		delete(c.items, key)
	}
	epoch := c.epoch
	c.mutex.Unlock()
	return c.load(ctx, key, epoch)
}

func (c *Cache[K, V]) load(ctx context.Context, key K, epoch uint64) (*V, error) {
	if c.config.loader == nil {
		return nil, ErrCacheMiss
	}
	v, err := c.config.loader(ctx, key)
	c.config.l.Debug("loaded", log.Any("key", key))
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.epoch != epoch {
		return v, nil
	}
	entry := item[*V]{data: v}
	if c.config.expiration > 0 {
		entry.expires = c.config.now().Add(c.config.expiration)
	}
	c.items[key] = entry
	return v, nil
}

func (c *Cache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
	c.epoch++
	c.config.l.Debug("Invalidate", log.Any("key", key), log.Int("remain", len(c.items)))
}

func (c *Cache[K, V]) InvalidateAll(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[K]item[*V])
	c.epoch++
	c.config.l.Debug("InvalidateAll")
}

// Len returns the number of cached entries, expired ones included
func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
