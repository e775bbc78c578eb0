package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// memoryCache is a TTL cache for provider responses. Every pipeline run is
// stateless, so memory is the only cache layer; the host's own response
// cache handles cross-restart reuse.
type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *memoryCache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *memoryCache) set(key string, v any) {
	now := time.Now()
	c.mu.Lock()
	// Opportunistic pruning keeps the map from growing unbounded across
	// long uptimes with many distinct parameter tuples.
	if len(c.entries) > 512 {
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{value: v, expires: now.Add(c.ttl)}
	c.mu.Unlock()
}

func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}
