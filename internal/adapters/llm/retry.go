package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
	"github.com/PabloGalante/trackmate-insights/internal/observability"
)

// RetryPolicy controls how a gateway retries rate-limited or failed attempts.
// Delays double from InitialBackoff: 1s, 2s, 4s with the defaults.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration

	// AttemptTimeout bounds a single request. A timed-out attempt counts
	// against MaxRetries like any other transport failure.
	AttemptTimeout time.Duration

	// Sleep waits between attempts; nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		AttemptTimeout: 2 * time.Minute,
	}
}

func (p RetryPolicy) isZero() bool {
	return p.MaxRetries == 0 && p.InitialBackoff == 0 && p.AttemptTimeout == 0 && p.Sleep == nil
}

func (p RetryPolicy) backoff(retry int) time.Duration {
	return p.InitialBackoff << uint(retry)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type attemptFunc func(ctx context.Context) ([]domain.Suggestion, error)

// run calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. Cancelling ctx aborts between and during attempts.
func (p RetryPolicy) run(ctx context.Context, backend string, fn attemptFunc) ([]domain.Suggestion, error) {
	log := observability.LoggerFromContext(ctx).With("backend", backend)

	var last *domain.UpstreamError
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.backoff(attempt - 1)
			log.Warnw("advice attempt failed, backing off",
				"attempt", attempt,
				"status", last.Status,
				"delay", delay,
				"error", last,
			)
			if err := p.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("advice request abandoned: %w", err)
			}
		}

		out, err := p.attempt(ctx, fn)
		if err == nil {
			if attempt > 0 {
				log.Infow("advice request succeeded after retry", "attempt", attempt+1)
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("advice request abandoned: %w", ctx.Err())
		}

		var ue *domain.UpstreamError
		if !errors.As(err, &ue) || !ue.Retryable() {
			fields := []any{"attempt", attempt + 1, "error", err}
			if ue != nil {
				fields = append(fields, "status", ue.Status, "raw", ue.Raw)
			}
			log.Errorw("advice request failed", fields...)
			return nil, err
		}
		last = ue
	}

	log.Errorw("advice upstream unavailable",
		"attempts", p.MaxRetries+1,
		"status", last.Status,
		"error", last,
	)
	return nil, &domain.UpstreamError{
		Kind:     domain.ErrUpstreamUnavailable,
		Status:   last.Status,
		Reason:   last.Error(),
		Attempts: p.MaxRetries + 1,
		Cause:    last,
	}
}

func (p RetryPolicy) attempt(ctx context.Context, fn attemptFunc) ([]domain.Suggestion, error) {
	if p.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return fn(actx)
}
