package memory

import (
	"sync"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// RecommendationCache keeps the last good suggestion list per owner.
// Entries are replaced whole, never patched.
type RecommendationCache struct {
	mu      sync.RWMutex
	entries map[domain.UserID]domain.CacheEntry
}

func NewRecommendationCache() *RecommendationCache {
	return &RecommendationCache{
		entries: make(map[domain.UserID]domain.CacheEntry),
	}
}

func (c *RecommendationCache) Get(owner domain.UserID) (domain.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[owner]
	if !ok {
		return domain.CacheEntry{}, false
	}
	return copyEntry(e), true
}

func (c *RecommendationCache) Put(owner domain.UserID, entry domain.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[owner] = copyEntry(entry)
}

// copyEntry detaches the suggestion slice so callers cannot mutate cached state.
func copyEntry(e domain.CacheEntry) domain.CacheEntry {
	out := domain.CacheEntry{FetchedAt: e.FetchedAt}
	if e.Suggestions != nil {
		out.Suggestions = append([]domain.Suggestion(nil), e.Suggestions...)
	}
	return out
}
