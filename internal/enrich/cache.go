package enrich

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
	usedAt    time.Time
}

// Cache is a thread-safe cache with a size bound and per-entry expiry. When
// full, the least recently used entry is evicted.
type Cache[V any] struct {
	data    map[string]*cacheEntry[V]
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
}

// NewCache creates a new cache with the specified size and TTL.
func NewCache[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Cache[V]{
		data:    make(map[string]*cacheEntry[V]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves a value from the cache.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.data[key]
	if !ok {
		return zero, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.data, key)
		return zero, false
	}

	entry.usedAt = now
	return entry.value, true
}

// Set stores a value in the cache.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.data[key] = &cacheEntry[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
		usedAt:    now,
	}
}

// Size returns the current number of entries in the cache.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*cacheEntry[V])
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time

	first := true
	for key, entry := range c.data {
		if first || entry.usedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.usedAt
			first = false
		}
	}

	if !first {
		delete(c.data, oldestKey)
	}
}
