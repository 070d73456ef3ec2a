package cache

import (
	"sync"
	"time"
)

// Clock lets tests control time deterministically.
type Clock func() time.Time

// TTL is a small in-process cache with per-entry expiry, used for reference
// data (DTC knowledge rows) that changes only through admin seeding.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     Clock
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func NewTTL[V any](ttl time.Duration, now Clock) *TTL[V] {
	if now == nil {
		now = time.Now
	}
	return &TTL[V]{
		entries: map[string]entry[V]{},
		ttl:     ttl,
		now:     now,
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have refreshed.
		if cur, still := c.entries[key]; still && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
