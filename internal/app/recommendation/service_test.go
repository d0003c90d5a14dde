package recommendation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/PabloGalante/trackmate-insights/internal/adapters/storage/memory"
	"github.com/PabloGalante/trackmate-insights/internal/app/personalization"
	"github.com/PabloGalante/trackmate-insights/internal/app/recommendation"
	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const owner = domain.UserID("u1")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeGateway struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}

	mu   sync.Mutex
	errs []error
}

func (g *fakeGateway) failNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs = append(g.errs, err)
}

func (g *fakeGateway) RequestAdvice(ctx context.Context, snap domain.ContextSnapshot) ([]domain.Suggestion, error) {
	n := g.calls.Add(1)
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}

	g.mu.Lock()
	var err error
	if len(g.errs) > 0 {
		err, g.errs = g.errs[0], g.errs[1:]
	}
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return []domain.Suggestion{{
		ID:             fmt.Sprintf("s-%d", n),
		Title:          "Take a walk",
		Recommendation: "Twenty minutes outside, " + snap.DisplayName,
		Category:       domain.CategoryActivity,
	}}, nil
}

type fixture struct {
	clock   *clock
	gateway *fakeGateway
	cache   *memory.RecommendationCache
	svc     *recommendation.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)}

	store := memory.NewStore()
	store.PutUser(domain.User{ID: owner, DisplayName: "ada", CurrentMood: "happy"})

	builder := personalization.NewBuilder(store).WithClock(clk.Now)
	gw := &fakeGateway{}
	cache := memory.NewRecommendationCache()

	return &fixture{
		clock:   clk,
		gateway: gw,
		cache:   cache,
		svc:     recommendation.NewService(builder, gw, cache, 48).WithClock(clk.Now),
	}
}

func TestGetOrFetchWithinCooldownHitsUpstreamOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	f.clock.Advance(5 * time.Second)
	second, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.gateway.calls.Load())
	assert.True(t, second.FromCache)
	assert.False(t, second.Stale)
	assert.Equal(t, first.Suggestions, second.Suggestions)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
}

func TestGetOrFetchAfterCooldownRefreshes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	second, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.gateway.calls.Load())
	assert.False(t, second.FromCache)
	assert.True(t, second.FetchedAt.After(first.FetchedAt))
	assert.Equal(t, "s-2", second.Suggestions[0].ID)
}

func TestGetOrFetchForceRefreshBypassesCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Second)
	got, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, true)
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.gateway.calls.Load())
	assert.Equal(t, "s-2", got.Suggestions[0].ID)
}

func TestGetOrFetchCollapsesConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	f.gateway.entered = make(chan struct{}, 16)
	f.gateway.release = make(chan struct{})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]recommendation.Result, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, false)
		}(i)
	}

	<-f.gateway.entered
	close(f.gateway.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.gateway.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "s-1", results[i].Suggestions[0].ID)
	}
}

func TestGetOrFetchForcedCallerDoesNotJoinUnforcedFlight(t *testing.T) {
	f := newFixture(t)
	f.gateway.entered = make(chan struct{}, 2)
	f.gateway.release = make(chan struct{})

	type outcome struct {
		res recommendation.Result
		err error
	}
	unforced := make(chan outcome, 1)
	forced := make(chan outcome, 1)

	go func() {
		res, err := f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, false)
		unforced <- outcome{res, err}
	}()
	<-f.gateway.entered

	go func() {
		res, err := f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, true)
		forced <- outcome{res, err}
	}()

	select {
	case <-f.gateway.entered:
	case <-time.After(time.Second):
		close(f.gateway.release)
		<-unforced
		<-forced
		t.Fatal("forced caller did not start its own upstream request")
	}
	close(f.gateway.release)

	u, fo := <-unforced, <-forced
	require.NoError(t, u.err)
	require.NoError(t, fo.err)
	assert.Equal(t, int32(2), f.gateway.calls.Load())
	assert.False(t, fo.res.FromCache)
	assert.NotEqual(t, u.res.Suggestions[0].ID, fo.res.Suggestions[0].ID)
}

func TestGetOrFetchLogsRejectedPayload(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := observability.Logger()
	observability.SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { observability.SetLogger(prev) })

	f := newFixture(t)
	raw := `{"suggestions":[{"id":"1","title":"RAW-MARKER","recommendation":"r"}]}`
	f.gateway.failNext(domain.NewValidationError("suggestions[0].category failed required", raw))

	_, err := f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, false)
	require.Error(t, err)

	rejected := logs.FilterMessage("advice response rejected").AllUntimed()
	require.Len(t, rejected, 1)
	fields := rejected[0].ContextMap()
	assert.Equal(t, raw, fields["raw"])
	assert.EqualValues(t, owner, fields["user_id"])
	assert.Contains(t, fields["reason"], "category")
}

func TestGetOrFetchCancelledCallerStillFillsCache(t *testing.T) {
	f := newFixture(t)
	f.gateway.entered = make(chan struct{}, 1)
	f.gateway.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
		done <- err
	}()

	<-f.gateway.entered
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	_, ok := f.cache.Get(owner)
	assert.False(t, ok, "nothing cached while the fetch is in flight")

	close(f.gateway.release)
	require.Eventually(t, func() bool {
		_, ok := f.cache.Get(owner)
		return ok
	}, time.Second, 5*time.Millisecond)

	got, err := f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, false)
	require.NoError(t, err)
	assert.True(t, got.FromCache)
	assert.Equal(t, int32(1), f.gateway.calls.Load())
}

func TestGetOrFetchValidationFailureKeepsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.NoError(t, err)
	before, _ := f.cache.Get(owner)

	f.clock.Advance(31 * time.Second)
	f.gateway.failNext(domain.NewValidationError("suggestions[0].category failed oneof", `{"suggestions":[]}`))

	got, err := f.svc.GetOrFetch(ctx, owner, 30*time.Second, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.True(t, got.Stale)
	assert.Equal(t, first.Suggestions, got.Suggestions)
	assert.Equal(t, first.FetchedAt, got.FetchedAt)

	after, ok := f.cache.Get(owner)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestGetOrFetchFailureWithEmptyCache(t *testing.T) {
	f := newFixture(t)
	f.gateway.failNext(&domain.UpstreamError{Kind: domain.ErrUpstreamUnavailable, Status: 429, Attempts: 4})

	got, err := f.svc.GetOrFetch(context.Background(), owner, 30*time.Second, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.Empty(t, got.Suggestions)
	assert.False(t, got.Stale)

	_, ok := f.cache.Get(owner)
	assert.False(t, ok)
}

func TestGetOrFetchUnknownOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrFetch(context.Background(), "ghost", 30*time.Second, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, int32(0), f.gateway.calls.Load())
}
