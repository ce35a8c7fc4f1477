package cache

import (
	"sync"
	"time"
)

// entry holds a cached translation with its write time.
type entry struct {
	value   string
	written time.Time
}

// InMemoryCache is a goroutine-safe in-memory cache with TTL support.
// Expired entries are dropped lazily on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewInMemoryCache creates an in-memory cache with the given TTL.
// A zero or negative TTL means entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}
	return &InMemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Get retrieves a value. Returns false for missing or expired keys.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if c.expired(e, time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores a value.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, written: time.Now()}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Entries returns all non-expired entries. Implements EntryLister.
func (c *InMemoryCache) Entries() (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.entries))
	now := time.Now()
	for key, e := range c.entries {
		if c.expired(e, now) {
			continue
		}
		out[key] = e.value
	}
	return out, nil
}

func (c *InMemoryCache) expired(e entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.written) > c.ttl
}

var (
	_ TranslationCache = (*InMemoryCache)(nil)
	_ EntryLister      = (*InMemoryCache)(nil)
)
