// Package cache provides an in-memory, per-key TTL cache that refreshes
// lazily on access and collapses concurrent misses into a single fetch.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/typerush/textsvc/pkg/models"
)

// DefaultTTL is used when a cache is created with a non-positive TTL.
const DefaultTTL = 300 * time.Second

// Well-known keys.
const (
	WordsKey = "words"
)

// SentenceKey returns the key of the sentence bucket for a length.
func SentenceKey(length int) string {
	return fmt.Sprintf("paragraph:%d", length)
}

// FetchFunc loads the full data set for a key from the backend.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// entry is never mutated after it is stored; a refresh swaps in a new one.
type entry[T any] struct {
	data      []T
	fetchedAt time.Time
}

// Cache is a per-key TTL cache over slices of T.
type Cache[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry[T]
	group   singleflight.Group

	hits    atomic.Int64
	misses  atomic.Int64
	fetches atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Cache whose entries stay fresh for ttl.
func New[T any](ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]*entry[T]),
	}
}

// TTL returns the freshness window.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// GetOrRefresh returns the cached data for key while it is fresh. Otherwise
// it calls fetch, stores the result as the new entry and returns it.
//
// Concurrent callers that miss on the same key share one fetch and receive
// the same data or the same error. A failed fetch leaves the previous entry
// (if any) in place.
func (c *Cache[T]) GetOrRefresh(ctx context.Context, key string, fetch FetchFunc[T]) ([]T, error) {
	if data, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return data, nil
	}
	c.misses.Add(1)

	// The flight outlives any single caller so a cancelled waiter does not
	// fail the others.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if data, ok := c.lookup(key); ok {
			return data, nil
		}
		c.fetches.Add(1)
		data, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = []T{}
		}
		c.store(key, data)
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache[T]) lookup(key string) ([]T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.data, true
}

func (c *Cache[T]) fresh(e *entry[T]) bool {
	return e.data != nil && c.now().Sub(e.fetchedAt) < c.ttl
}

func (c *Cache[T]) store(key string, data []T) {
	e := &entry[T]{data: data, fetchedAt: c.now()}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Invalidate drops the entry for key so the next access refetches.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes entries and returns how many were dropped. If expiredOnly is
// true, only stale entries are removed.
func (c *Cache[T]) Purge(expiredOnly bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if expiredOnly && c.fresh(e) {
			continue
		}
		delete(c.entries, k)
		n++
	}
	return n
}

// Stats returns cache performance metrics.
func (c *Cache[T]) Stats() models.CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return models.CacheStats{
		Entries: int64(n),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
	}
}
