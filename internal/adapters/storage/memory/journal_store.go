package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// JournalStore is a simple in-memory journal record store.
type JournalStore struct {
	mu      sync.RWMutex
	byOwner map[domain.UserID][]domain.JournalRecord
}

// NewJournalStore creates a new in-memory JournalStore.
func NewJournalStore() *JournalStore {
	return &JournalStore{
		byOwner: make(map[domain.UserID][]domain.JournalRecord),
	}
}

// AddJournalEntry saves a new journal entry.
func (s *JournalStore) AddJournalEntry(entry domain.JournalRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOwner[entry.OwnerID] = append(s.byOwner[entry.OwnerID], entry)
}

// ListJournalEntries returns the owner's entries newest first.
// If q.Limit <= 0, returns all.
func (s *JournalStore) ListJournalEntries(ctx context.Context, owner domain.UserID, q domain.JournalQuery) ([]domain.JournalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := s.byOwner[owner]
	out := make([]domain.JournalRecord, 0, len(entries))
	for _, e := range entries {
		if !q.CreatedSince.IsZero() && e.CreatedAt.Before(q.CreatedSince) {
			continue
		}
		out = append(out, e)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
