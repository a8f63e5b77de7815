package cache

import (
	"sync"
	"time"

	"github.com/tradex-organiztion/tradex-web-sub000/internal/model"
)

// SymbolCache is a process-wide TTL cache for symbol catalogs, keyed by an
// arbitrary string (exchange/market combination or the merged catalog).
// Entries are replaced wholesale on expiry, never mutated in place. The clock
// is injectable for test isolation.
type SymbolCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	symbols   []model.SymbolInfo
	expiresAt time.Time
}

// NewSymbolCache creates a cache with the given TTL using the wall clock
func NewSymbolCache(ttl time.Duration) *SymbolCache {
	return NewSymbolCacheWithClock(ttl, time.Now)
}

// NewSymbolCacheWithClock creates a cache with an injected clock
func NewSymbolCacheWithClock(ttl time.Duration, now func() time.Time) *SymbolCache {
	return &SymbolCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached symbols for key if present and not expired
func (c *SymbolCache) Get(key string) ([]model.SymbolInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.symbols, true
}

// Set stores symbols under key with a fresh TTL
func (c *SymbolCache) Set(key string, symbols []model.SymbolInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		symbols:   symbols,
		expiresAt: c.now().Add(c.ttl),
	}
}
