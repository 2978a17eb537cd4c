// Package cache holds analysis results keyed by content fingerprint.
//
// An entry is served while it is younger than twice the refresh interval.
// Staleness is checked lazily on Get; nothing sweeps the map. Two callers
// that miss at the same time both compute and both Put, and the later Put
// wins.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Entry is one cached value.
type Entry[T any] struct {
	Fingerprint string
	Data        T
	Timestamp   time.Time
}

// Cache is a fingerprint-keyed, time-bounded result cache.
// It is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]Entry[T]
	maxAge  time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates a cache whose entries stay valid for 2 × refreshInterval.
func New[T any](refreshInterval time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		entries: make(map[string]Entry[T]),
		maxAge:  2 * refreshInterval,
		now:     o.now,
	}
}

// Get returns the value stored under fingerprint if it is still fresh.
// A stale entry is removed.
func (c *Cache[T]) Get(fingerprint string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	if c.now().Sub(entry.Timestamp) > c.maxAge {
		delete(c.entries, fingerprint)
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	c.hits.Add(1)
	return entry.Data, true
}

// Put stores data under fingerprint, replacing any previous entry.
func (c *Cache[T]) Put(fingerprint string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = Entry[T]{
		Fingerprint: fingerprint,
		Data:        data,
		Timestamp:   c.now(),
	}
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry[T])
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts since creation.
func (c *Cache[T]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
