package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[domain.UserID]domain.User),
	}
}

// PutUser creates or replaces a user.
func (s *UserStore) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u
}

func (s *UserStore) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// Store bundles the three in-memory stores; it implements domain.RecordStore.
type Store struct {
	*TaskStore
	*JournalStore
	*UserStore
}

func NewStore() *Store {
	return &Store{
		TaskStore:    NewTaskStore(),
		JournalStore: NewJournalStore(),
		UserStore:    NewUserStore(),
	}
}

var _ domain.RecordStore = (*Store)(nil)
