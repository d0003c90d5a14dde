package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

// DefaultCooldown is how long a fetched suggestion list is served without
// asking the advice service again.
const DefaultCooldown = 30 * time.Second

// SnapshotBuilder is the slice of the context builder this service needs.
type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, owner domain.UserID, windowHours int) (domain.ContextSnapshot, error)
}

// Result is what a caller of GetOrFetch receives.
type Result struct {
	Suggestions []domain.Suggestion
	FetchedAt   time.Time
	// Stale is set when the list is older than the cooldown and a refresh failed.
	Stale     bool
	FromCache bool
}

// Service fronts the advice gateway with a per-owner cache.
type Service struct {
	builder     SnapshotBuilder
	gateway     domain.AdviceGateway
	cache       domain.RecommendationCache
	windowHours int
	now         func() time.Time

	flight singleflight.Group
}

func NewService(
	builder SnapshotBuilder,
	gateway domain.AdviceGateway,
	cache domain.RecommendationCache,
	windowHours int,
) *Service {
	return &Service{
		builder:     builder,
		gateway:     gateway,
		cache:       cache,
		windowHours: windowHours,
		now:         time.Now,
	}
}

// WithClock replaces the service's time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetOrFetch returns the owner's cached suggestions while they are younger
// than cooldown, and fetches a new list otherwise or when forceRefresh is set.
//
// Concurrent fetches for one owner share a single upstream request; forced
// and unforced callers fly separately so a forced caller never receives the
// cached list from an unforced flight's freshness re-check. The
// request runs detached from ctx: a caller that gives up gets ctx.Err(), but
// the fetch continues and still fills the cache.
//
// On failure the previous list, if any, is returned marked Stale together
// with the error. The cache is only written after a successful fetch.
func (s *Service) GetOrFetch(ctx context.Context, owner domain.UserID, cooldown time.Duration, forceRefresh bool) (Result, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", owner,
		"force_refresh", forceRefresh,
	)

	prev, cached := s.cache.Get(owner)
	if cached && !forceRefresh && s.fresh(prev, cooldown) {
		log.Infow("recommendations served from cache", "fetched_at", prev.FetchedAt)
		return Result{Suggestions: prev.Suggestions, FetchedAt: prev.FetchedAt, FromCache: true}, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(flightKey(owner, forceRefresh), func() (any, error) {
		return s.fetch(detached, owner, cooldown, forceRefresh)
	})

	select {
	case <-ctx.Done():
		log.Warnw("caller left before recommendations arrived", "error", ctx.Err())
		return fallback(prev, cached), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			log.Errorw("recommendation fetch failed", "error", res.Err, "has_stale", cached)
			return fallback(prev, cached), res.Err
		}
		return res.Val.(Result), nil
	}
}

// fetch runs once per owner at a time inside the singleflight group.
func (s *Service) fetch(ctx context.Context, owner domain.UserID, cooldown time.Duration, forceRefresh bool) (Result, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", owner)

	// Another flight may have refreshed the entry since the caller looked.
	if !forceRefresh {
		if e, ok := s.cache.Get(owner); ok && s.fresh(e, cooldown) {
			return Result{Suggestions: e.Suggestions, FetchedAt: e.FetchedAt, FromCache: true}, nil
		}
	}

	snap, err := s.builder.BuildSnapshot(ctx, owner, s.windowHours)
	if err != nil {
		return Result{}, fmt.Errorf("building snapshot: %w", err)
	}

	suggestions, err := s.gateway.RequestAdvice(ctx, snap)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && errors.Is(err, domain.ErrValidation) {
			log.Errorw("advice response rejected",
				"status", ue.Status,
				"reason", ue.Reason,
				"raw", ue.Raw,
			)
		}
		return Result{}, fmt.Errorf("requesting advice: %w", err)
	}

	entry := domain.CacheEntry{Suggestions: suggestions, FetchedAt: s.now()}
	s.cache.Put(owner, entry)
	log.Infow("recommendations refreshed",
		"suggestions", len(suggestions),
		"fetched_at", entry.FetchedAt,
	)
	return Result{Suggestions: entry.Suggestions, FetchedAt: entry.FetchedAt}, nil
}

func flightKey(owner domain.UserID, forceRefresh bool) string {
	if forceRefresh {
		return string(owner) + "|force"
	}
	return string(owner)
}

func (s *Service) fresh(e domain.CacheEntry, cooldown time.Duration) bool {
	return s.now().Sub(e.FetchedAt) < cooldown
}

func fallback(prev domain.CacheEntry, cached bool) Result {
	if !cached {
		return Result{}
	}
	return Result{Suggestions: prev.Suggestions, FetchedAt: prev.FetchedAt, Stale: true, FromCache: true}
}
