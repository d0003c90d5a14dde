package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

const (
	moodWindowDays   = 30
	recentWindowDays = 7
)

// Windows are the boundaries a summary is computed against.
type Windows struct {
	WeekStart    time.Time // Monday 00:00 of the current week
	WeekEnd      time.Time // WeekStart + 7 days, exclusive
	ThirtyDayAgo time.Time // now - 30d, truncated to midnight
	SevenDayAgo  time.Time // now - 7d, truncated to midnight
}

// ComputeWindows derives the summary boundaries from now, in now's location.
// Weeks start on Monday.
func ComputeWindows(now time.Time) Windows {
	today := midnight(now)
	// time.Weekday counts from Sunday=0; shift so Monday=0.
	offset := (int(today.Weekday()) + 6) % 7
	weekStart := today.AddDate(0, 0, -offset)

	return Windows{
		WeekStart:    weekStart,
		WeekEnd:      weekStart.AddDate(0, 0, 7),
		ThirtyDayAgo: midnight(now.AddDate(0, 0, -moodWindowDays)),
		SevenDayAgo:  midnight(now.AddDate(0, 0, -recentWindowDays)),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (w Windows) inWeek(t time.Time) bool {
	return !t.Before(w.WeekStart) && t.Before(w.WeekEnd)
}

// Service is the aggregation engine behind GET /stats/summary.
type Service struct {
	tasks   domain.TaskStore
	journal domain.JournalStore
	loc     *time.Location
}

// NewService creates the aggregation engine. loc is the zone used for week
// and day boundaries; nil means the zone of the instant passed to Summarize.
func NewService(tasks domain.TaskStore, journal domain.JournalStore, loc *time.Location) *Service {
	return &Service{
		tasks:   tasks,
		journal: journal,
		loc:     loc,
	}
}

// Summarize reduces the owner's records into a StatsSummary. The task and
// journal queries run concurrently and are merged once both complete.
// Sparse or empty data yields zero-filled buckets; only store failures
// are returned as errors.
func (s *Service) Summarize(ctx context.Context, owner domain.UserID, now time.Time) (domain.StatsSummary, error) {
	if s.loc != nil {
		now = now.In(s.loc)
	}
	w := ComputeWindows(now)

	log := observability.LoggerFromContext(ctx).With(
		"user_id", owner,
		"week_start", w.WeekStart,
		"mood_since", w.ThirtyDayAgo,
	)

	var (
		tasks   []domain.TaskRecord
		entries []domain.JournalRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.ListTasks(gctx, owner, domain.TaskQuery{})
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.journal.ListJournalEntries(gctx, owner, domain.JournalQuery{CreatedSince: w.ThirtyDayAgo})
		if err != nil {
			return fmt.Errorf("listing journal entries: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorw("stats summary failed", "error", err)
		return domain.StatsSummary{}, err
	}

	summary, skipped := Reduce(tasks, entries, w)
	if skipped > 0 {
		log.Warnw("ignored records with unknown labels", "skipped", skipped)
	}
	log.Infow("stats summary computed",
		"tasks", len(tasks),
		"journal_entries", len(entries),
	)
	return summary, nil
}

// Reduce is the pure part of Summarize: given the owner's full task list and
// the journal entries it folds them into a summary for the windows w.
// skipped counts records dropped for an unknown priority, mood or weekday.
func Reduce(tasks []domain.TaskRecord, entries []domain.JournalRecord, w Windows) (domain.StatsSummary, int) {
	summary := domain.NewStatsSummary()
	skipped := 0

	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}

		if w.inWeek(t.CreatedAt) && !summary.AddPriority(t.Priority) {
			skipped++
		}

		if t.Completed && w.inWeek(t.UpdatedAt) {
			day := t.UpdatedAt.In(w.WeekStart.Location()).Weekday()
			if !summary.AddCompletion(day) {
				skipped++
			}
		}
	}
	summary.SetTaskTotals(len(tasks), completed)

	for _, e := range entries {
		if e.CreatedAt.Before(w.ThirtyDayAgo) {
			continue
		}
		if !summary.AddMood(e.Mood) {
			skipped++
		}
	}

	return summary, skipped
}
