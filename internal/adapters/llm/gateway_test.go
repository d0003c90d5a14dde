package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/PabloGalante/trackmate-insights/internal/adapters/llm"
	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

const validAnswer = `{"suggestions":[
	{"id":"1","title":"Short break","recommendation":"Step away for 15 minutes.","category":"wellness"},
	{"id":"2","title":"Plan","recommendation":"Pick two tasks.","category":"productivity"}
]}`

var snapshot = domain.ContextSnapshot{
	DisplayName: "ada",
	CurrentMood: "sad",
	PendingTasks: []domain.SnapshotTask{
		{Title: "Math final", Description: "integrals are hard", Priority: "high"},
	},
	RecentJournal: []domain.SnapshotJournal{{Mood: "sad", Body: "exam week"}},
}

func candidates(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(raw)
}

// recorder collects the delays the gateway asked to sleep for.
type recorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newGateway(t *testing.T, url string, rec *recorder) *llm.Gateway {
	t.Helper()
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = rec.sleep
	return gatewayWithPolicy(t, url, policy)
}

func gatewayWithPolicy(t *testing.T, url string, policy llm.RetryPolicy) *llm.Gateway {
	t.Helper()
	gw, err := llm.NewRESTGateway(context.Background(), llm.RESTConfig{
		BaseURL: url,
		Model:   "test-model",
		APIKey:  "secret-key",
		Policy:  policy,
	})
	require.NoError(t, err)
	return gw
}

// scripted replies with statuses[i] for the i-th call and 200 afterwards.
func scripted(statuses []int, answer string, hits *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1)) - 1
		if n < len(statuses) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(statuses[n])
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"quota"}}`, statuses[n])
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, candidates(answer))
	}
}

func TestRequestAdviceRetriesRateLimits(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(scripted([]int{429, 429, 429}, validAnswer, &hits))
	defer srv.Close()

	rec := &recorder{}
	got, err := newGateway(t, srv.URL, rec).RequestAdvice(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CategoryWellness, got[0].Category)
}

func TestRequestAdviceGivesUpAfterBudget(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(scripted([]int{429, 429, 429, 429, 429}, validAnswer, &hits))
	defer srv.Close()

	rec := &recorder{}
	_, err := newGateway(t, srv.URL, rec).RequestAdvice(context.Background(), snapshot)
	require.Error(t, err)

	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits), "no fifth attempt")
	assert.Len(t, rec.delays, 3)

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 4, ue.Attempts)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
}

func TestRequestAdviceDoesNotRetryOtherStatuses(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(scripted([]int{400}, validAnswer, &hits))
	defer srv.Close()

	rec := &recorder{}
	_, err := newGateway(t, srv.URL, rec).RequestAdvice(context.Background(), snapshot)
	require.Error(t, err)

	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.False(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, rec.delays)
}

func TestRequestAdviceRejectsInvalidShape(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := observability.Logger()
	observability.SetLogger(zap.New(core).Sugar())
	t.Cleanup(func() { observability.SetLogger(prev) })

	var hits int32
	missingCategory := `{"suggestions":[{"id":"1","title":"t","recommendation":"r"}]}`
	srv := httptest.NewServer(scripted(nil, missingCategory, &hits))
	defer srv.Close()

	_, err := newGateway(t, srv.URL, &recorder{}).RequestAdvice(context.Background(), snapshot)
	require.Error(t, err)

	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Contains(t, ue.Reason, "category")
	assert.Equal(t, missingCategory, ue.Raw)

	failed := logs.FilterMessage("advice request failed").AllUntimed()
	require.Len(t, failed, 1)
	assert.Equal(t, missingCategory, failed[0].ContextMap()["raw"])
	assert.Equal(t, "rest", failed[0].ContextMap()["backend"])
}

func TestRequestAdviceAttemptTimeoutCountsAsTransport(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	policy := llm.RetryPolicy{
		MaxRetries:     1,
		InitialBackoff: time.Second,
		AttemptTimeout: 20 * time.Millisecond,
		Sleep:          rec.sleep,
	}
	gw := gatewayWithPolicy(t, srv.URL, policy)

	_, err := gw.RequestAdvice(context.Background(), snapshot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.True(t, errors.Is(err, domain.ErrTransport))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestRequestAdviceStopsWhenCallerCancels(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(scripted([]int{429, 429, 429, 429}, validAnswer, &hits))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	policy := llm.DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	gw := gatewayWithPolicy(t, srv.URL, policy)

	_, err := gw.RequestAdvice(ctx, snapshot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, domain.ErrUpstreamUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRequestAdviceWireFormat(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotBody map[string]any
		rawBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		rawBody = string(b)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = io.WriteString(w, candidates(validAnswer))
	}))
	defer srv.Close()

	_, err := newGateway(t, srv.URL+"/", &recorder{}).RequestAdvice(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/test-model:generateContent", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.NotContains(t, rawBody, "secret-key")
	assert.Contains(t, rawBody, "User data snapshot: ")
	assert.Contains(t, rawBody, "Math final")

	cfg, ok := gotBody["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.NotNil(t, cfg["responseSchema"])
	assert.NotNil(t, gotBody["systemInstruction"])
}

func TestNewRESTGatewayDefaults(t *testing.T) {
	_, err := llm.NewRESTGateway(context.Background(), llm.RESTConfig{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, err, "API key is required")

	var hits int32
	srv := httptest.NewServer(scripted([]int{429}, validAnswer, &hits))
	defer srv.Close()

	// A zero policy falls back to the default retry budget. The first
	// backoff is one second on a real timer.
	gw := gatewayWithPolicy(t, srv.URL, llm.RetryPolicy{})
	got, err := gw.RequestAdvice(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestParseSuggestions(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		reason string
	}{
		{"empty", "  ", "empty response"},
		{"not json", "Sure! Here you go", "decoding suggestions"},
		{"no list", `{}`, "suggestions failed required"},
		{"empty list", `{"suggestions":[]}`, "suggestions failed min=1"},
		{"unknown category", `{"suggestions":[{"id":"1","title":"t","recommendation":"r","category":"finance"}]}`, "category failed oneof"},
		{"blank title", `{"suggestions":[{"id":"1","title":"  ","recommendation":"r","category":"media"}]}`, "title failed required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := llm.ParseSuggestions(tc.raw)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, domain.ErrValidation))
			assert.Contains(t, err.Error(), tc.reason)
		})
	}

	out, err := llm.ParseSuggestions(`{"suggestions":[{"id":" a ","title":"Walk","recommendation":"Go outside","category":"Activity"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Suggestion{{ID: "a", Title: "Walk", Recommendation: "Go outside", Category: domain.CategoryActivity}}, out)
}

func TestMockGatewayTargetsStress(t *testing.T) {
	got, err := llm.NewMockGateway().RequestAdvice(context.Background(), snapshot)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, domain.CategoryWellness, got[0].Category)
	assert.True(t, strings.Contains(got[0].Recommendation, "Math final"))

	raw, err := json.Marshal(map[string]any{"suggestions": got})
	require.NoError(t, err)
	_, err = llm.ParseSuggestions(string(raw))
	assert.NoError(t, err, "mock output must pass the same validation")
}
