package beta

import (
	"sync"

	"github.com/wonny/betascope/internal/contracts"
)

type cacheEntry struct {
	assetFP     string
	benchmarkFP string
	result      contracts.BetaResult
}

// Cache keeps the last computed beta per ticker until either input series changes
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the cached result only if both fingerprints still match
func (c *Cache) Get(ticker, assetFP, benchmarkFP string) (*contracts.BetaResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[ticker]
	if !ok || entry.assetFP != assetFP || entry.benchmarkFP != benchmarkFP {
		return nil, false
	}
	result := entry.result
	return &result, true
}

// Put stores a result for the given input fingerprints
func (c *Cache) Put(ticker, assetFP, benchmarkFP string, result *contracts.BetaResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ticker] = cacheEntry{assetFP: assetFP, benchmarkFP: benchmarkFP, result: *result}
}

// Invalidate drops the cached result for a ticker
func (c *Cache) Invalidate(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ticker)
}

// Reset drops everything
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
