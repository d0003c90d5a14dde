package personalization

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

// Builder assembles the bounded ContextSnapshot sent to the advice service.
type Builder struct {
	store domain.RecordStore
	now   func() time.Time
}

// NewBuilder creates a context builder reading from store.
func NewBuilder(store domain.RecordStore) *Builder {
	return &Builder{
		store: store,
		now:   time.Now,
	}
}

// WithClock replaces the builder's time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// BuildSnapshot collects the owner's profile, pending tasks and journal
// entries created within the last windowHours. windowHours <= 0 falls back
// to domain.DefaultSnapshotWindowHours.
//
// It fails with domain.ErrNotFound only when the user record is missing;
// an owner with no recent activity gets a snapshot with empty lists.
func (b *Builder) BuildSnapshot(ctx context.Context, owner domain.UserID, windowHours int) (domain.ContextSnapshot, error) {
	if windowHours <= 0 {
		windowHours = domain.DefaultSnapshotWindowHours
	}
	since := b.now().Add(-time.Duration(windowHours) * time.Hour)

	log := observability.LoggerFromContext(ctx).With(
		"user_id", owner,
		"window_hours", windowHours,
	)

	var (
		user    *domain.User
		tasks   []domain.TaskRecord
		entries []domain.JournalRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = b.store.GetUser(gctx, owner)
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = b.store.ListTasks(gctx, owner, domain.TaskQuery{
			CreatedSince: since,
			PendingOnly:  true,
			Limit:        domain.MaxSnapshotTasks,
		})
		if err != nil {
			return fmt.Errorf("listing pending tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = b.store.ListJournalEntries(gctx, owner, domain.JournalQuery{
			CreatedSince: since,
			Limit:        domain.MaxSnapshotJournal,
		})
		if err != nil {
			return fmt.Errorf("listing journal entries: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Warnw("snapshot build failed", "error", err)
		return domain.ContextSnapshot{}, err
	}

	snap := Select(*user, tasks, entries, since)
	log.Infow("snapshot built",
		"pending_tasks", len(snap.PendingTasks),
		"journal_entries", len(snap.RecentJournal),
	)
	return snap, nil
}

// Select is the pure part of BuildSnapshot. It does not trust the store to
// have filtered, ordered or capped anything.
func Select(user domain.User, tasks []domain.TaskRecord, entries []domain.JournalRecord, since time.Time) domain.ContextSnapshot {
	snap := domain.ContextSnapshot{
		DisplayName:   strings.TrimSpace(user.DisplayName),
		CurrentMood:   strings.TrimSpace(user.CurrentMood),
		PendingTasks:  []domain.SnapshotTask{},
		RecentJournal: []domain.SnapshotJournal{},
	}

	pending := make([]domain.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed || t.CreatedAt.Before(since) {
			continue
		}
		pending = append(pending, t)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	if len(pending) > domain.MaxSnapshotTasks {
		pending = pending[:domain.MaxSnapshotTasks]
	}
	for _, t := range pending {
		snap.PendingTasks = append(snap.PendingTasks, domain.SnapshotTask{
			Title:       strings.TrimSpace(t.Title),
			Description: strings.TrimSpace(t.Description),
			Priority:    strings.TrimSpace(t.Priority),
		})
	}

	recent := make([]domain.JournalRecord, 0, len(entries))
	for _, e := range entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		recent = append(recent, e)
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > domain.MaxSnapshotJournal {
		recent = recent[:domain.MaxSnapshotJournal]
	}
	for _, e := range recent {
		snap.RecentJournal = append(snap.RecentJournal, domain.SnapshotJournal{
			Mood: strings.TrimSpace(e.Mood),
			Body: strings.TrimSpace(e.Body),
		})
	}

	return snap
}
