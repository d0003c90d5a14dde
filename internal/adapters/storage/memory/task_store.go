package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

// TaskStore is an in-memory task record store.
// It is NOT persistent and is only suitable for development / local mode.
type TaskStore struct {
	mu      sync.RWMutex
	byOwner map[domain.UserID][]domain.TaskRecord
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		byOwner: make(map[domain.UserID][]domain.TaskRecord),
	}
}

// AddTask stores a copy of the task under its owner.
func (s *TaskStore) AddTask(task domain.TaskRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOwner[task.OwnerID] = append(s.byOwner[task.OwnerID], task)
}

func (s *TaskStore) ListTasks(ctx context.Context, owner domain.UserID, q domain.TaskQuery) ([]domain.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	tasks := s.byOwner[owner]
	out := make([]domain.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if !q.CreatedSince.IsZero() && t.CreatedAt.Before(q.CreatedSince) {
			continue
		}
		if q.PendingOnly && t.Completed {
			continue
		}
		out = append(out, t)
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
