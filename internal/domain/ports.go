package domain

import (
	"context"
	"time"
)

// TaskQuery narrows a task listing. Zero values mean "no filter".
// Results are always ordered newest first by creation time.
type TaskQuery struct {
	CreatedSince time.Time
	PendingOnly  bool
	Limit        int
}

// JournalQuery narrows a journal listing, newest first.
type JournalQuery struct {
	CreatedSince time.Time
	Limit        int
}

// TaskStore is the read side of the task record store.
type TaskStore interface {
	ListTasks(ctx context.Context, owner UserID, q TaskQuery) ([]TaskRecord, error)
}

// JournalStore is the read side of the journal record store.
type JournalStore interface {
	ListJournalEntries(ctx context.Context, owner UserID, q JournalQuery) ([]JournalRecord, error)
}

// UserStore returns ErrNotFound when the owner does not exist.
type UserStore interface {
	GetUser(ctx context.Context, id UserID) (*User, error)
}

// RecordStore bundles the three read ports; every storage backend implements it.
type RecordStore interface {
	TaskStore
	JournalStore
	UserStore
}

// AdviceGateway sends a snapshot to the external advice service and returns a
// validated suggestion list.
type AdviceGateway interface {
	RequestAdvice(ctx context.Context, snapshot ContextSnapshot) ([]Suggestion, error)
}

// RecommendationCache holds the last good suggestion list per owner.
type RecommendationCache interface {
	Get(owner UserID) (CacheEntry, bool)
	Put(owner UserID, entry CacheEntry)
}
