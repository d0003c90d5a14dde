package domain

import "time"

const (
	// MaxSnapshotTasks and MaxSnapshotJournal bound what leaves the service.
	MaxSnapshotTasks   = 10
	MaxSnapshotJournal = 3

	DefaultSnapshotWindowHours = 48
)

// ContextSnapshot is the bounded, per-request document sent to the advice
// service. It is never persisted.
type ContextSnapshot struct {
	DisplayName   string            `json:"displayName"`
	CurrentMood   string            `json:"currentMood,omitempty"`
	PendingTasks  []SnapshotTask    `json:"pendingTasks"`
	RecentJournal []SnapshotJournal `json:"recentJournal"`
}

type SnapshotTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
}

type SnapshotJournal struct {
	Mood string `json:"mood"`
	Body string `json:"body"`
}

// Category is the closed set of suggestion kinds the advice service may return.
type Category string

const (
	CategoryProductivity Category = "productivity"
	CategoryActivity     Category = "activity"
	CategoryWellness     Category = "wellness"
	CategoryMedia        Category = "media"
)

var Categories = []Category{CategoryProductivity, CategoryActivity, CategoryWellness, CategoryMedia}

// Suggestion is produced only by the advice service; the core validates it.
type Suggestion struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Recommendation string   `json:"recommendation"`
	Category       Category `json:"category"`
}

// CacheEntry is the last successful suggestion list for an owner.
type CacheEntry struct {
	Suggestions []Suggestion
	FetchedAt   time.Time
}
