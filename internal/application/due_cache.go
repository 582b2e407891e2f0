package application

import (
	"fmt"
	"sync"
	"time"
)

// dueCache stores recently computed hours-until-service figures so repeated
// dashboard polls do not rescan the ledger while it remains unchanged. Keys
// embed the state generation, so a committed write naturally misses.
type dueCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]dueCacheEntry
}

type dueCacheEntry struct {
	hours     float64
	expiresAt time.Time
}

func newDueCache(ttl time.Duration, maxEntries int, now func() time.Time) *dueCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &dueCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]dueCacheEntry),
	}
}

func (c *dueCache) Get(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return 0, false
	}
	return entry.hours, true
}

func (c *dueCache) Store(key string, hours float64) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = dueCacheEntry{hours: hours, expiresAt: expiry}
}

func (c *dueCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *dueCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func dueCacheKey(resourceID int64, generation uint64) string {
	return fmt.Sprintf("resource:%d|gen:%d", resourceID, generation)
}
