// Package ttlcache provides a small mutex-guarded cache with per-entry
// expiry. The compute engine instantiates one cache per concern (health,
// GPU names, discovery, routing snapshot) rather than sharing instances,
// so no cross-cache ordering exists.
package ttlcache

import (
	"sync"
	"time"
)

// Clock abstracts time.Now() for deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache maps keys to values that expire after a fixed TTL. All methods are
// safe under arbitrary caller concurrency.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[K]entry[V]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock injects a clock. Tests use this to step time explicitly.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates an empty cache whose entries expire ttl after Set.
// A non-positive ttl disables caching: Get never returns a hit.
func New[K comparable, V any](ttl time.Duration, opts ...Option) *Cache[K, V] {
	o := options{clock: RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[K, V]{
		ttl:     ttl,
		clock:   o.clock,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the live value for key. Expired entries are evicted on read.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.clock.Now().After(e.expires) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, resetting its expiry.
func (c *Cache[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes every entry. Used for forced re-probes and test isolation.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len counts live entries, evicting expired ones as it goes.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}

// TTL returns the configured entry lifetime.
func (c *Cache[K, V]) TTL() time.Duration { return c.ttl }
