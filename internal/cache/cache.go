package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/kolmetry/kolmetry/internal/matching"
)

// item is a cached suggestion list with expiration
type item struct {
	suggestions []matching.Suggestion
	expiresAt   time.Time
}

func (i *item) expired() bool {
	return time.Now().After(i.expiresAt)
}

// SuggestionCache memoizes ranked suggestion lists keyed by the normalized
// entered name plus nominator context. Any registry write invalidates the
// whole cache since every entry ranks against the same candidate pool.
type SuggestionCache struct {
	mu    sync.RWMutex
	items map[string]*item
	ttl   time.Duration
}

// NewSuggestionCache creates a cache with the specified TTL
func NewSuggestionCache(ttl time.Duration) *SuggestionCache {
	c := &SuggestionCache{
		items: make(map[string]*item),
		ttl:   ttl,
	}

	go c.cleanup()

	return c
}

// cleanup removes expired items periodically
func (c *SuggestionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, it := range c.items {
			if it.expired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Key builds a consistent cache key from the normalized name and nominator
func Key(normalizedName, nominatorNPI string) string {
	hash := sha256.Sum256([]byte(normalizedName + "|" + nominatorNPI))
	return fmt.Sprintf("%x", hash[:16])
}

// Get retrieves a suggestion list from the cache
func (c *SuggestionCache) Get(key string) ([]matching.Suggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[key]
	if !exists || it.expired() {
		return nil, false
	}

	return it.suggestions, true
}

// Set stores a suggestion list in the cache
func (c *SuggestionCache) Set(key string, suggestions []matching.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &item{
		suggestions: suggestions,
		expiresAt:   time.Now().Add(c.ttl),
	}
}

// Clear removes all items, called after any person or alias write
func (c *SuggestionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*item)
}

// Size returns the number of cached suggestion lists
func (c *SuggestionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
