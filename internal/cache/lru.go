package cache

import (
	"context"
	"sync"
	"time"
)

// LRUStore is a thread-safe in-process KVStore with per-entry expiry.
type LRUStore struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]lruEntry
	order   []string // oldest first
	now     func() time.Time
}

type lruEntry struct {
	value     string
	expiresAt time.Time // zero never expires
}

// NewLRUStore creates a store holding at most maxSize keys.
// If maxSize <= 0, it defaults to 1024.
func NewLRUStore(maxSize int) *LRUStore {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &LRUStore{
		maxSize: maxSize,
		entries: make(map[string]lruEntry),
		now:     time.Now,
	}
}

// Len returns the number of stored keys, expired ones included.
func (c *LRUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUStore) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.remove(key)
		return "", ErrCacheMiss
	}

	c.moveToEnd(key)
	return entry.value, nil
}

// Set stores value under key, evicting the least recently used key if full.
// A ttl <= 0 never expires.
func (c *LRUStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := lruEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		c.moveToEnd(key)
		return nil
	}

	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
	return nil
}

func (c *LRUStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
	return nil
}

func (c *LRUStore) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *LRUStore) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
