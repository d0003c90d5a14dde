package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the owner record is missing. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited and ErrTransport are retryable upstream conditions.
	ErrRateLimited = errors.New("upstream rate limited")
	ErrTransport   = errors.New("upstream transport failure")

	// ErrUpstream is a non-retryable upstream failure.
	ErrUpstream = errors.New("upstream error")

	// ErrValidation: the upstream answer did not match the declared shape.
	// A validation error is also an ErrUpstream.
	ErrValidation = errors.New("upstream response failed validation")

	// ErrUpstreamUnavailable is the terminal state after the retry budget is spent.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError carries the context needed to reproduce an advice failure.
type UpstreamError struct {
	Kind     error
	Status   int
	Reason   string
	Raw      string
	Attempts int
	Cause    error
}

func (e *UpstreamError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	return msg
}

func (e *UpstreamError) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrValidation && target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure may succeed on another attempt.
func (e *UpstreamError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrTransport
}

func NewValidationError(reason, raw string) *UpstreamError {
	return &UpstreamError{Kind: ErrValidation, Reason: reason, Raw: raw}
}
