// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the text-completion collaborator behind a small
// interface so every pipeline stage can run against a mock in tests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Completer is the opaque text-completion capability: prompt in, text out.
// Implementations must distinguish transient failures (timeout, rate limit)
// from fatal ones (malformed request) via IsTransient.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// transientError marks an error as retryable by the caller.
type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient wraps err so IsTransient reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err is a retryable failure: a network
// timeout, a rate limit, or a server-side error. Context cancellation and
// deadline expiry also count; callers treat a timed-out call identically
// to a failed one.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te transientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// backoffBase controls the base duration for exponential backoff between
// retries. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// defaultMaxRetries matches the AIConfig documentation: one retry on a
// transient failure before degrading.
const defaultMaxRetries = 1

// CompleteWithRetry calls c.Complete, retrying transient failures up to
// maxRetries times with exponential backoff. A non-positive maxRetries
// selects the default. Fatal errors return immediately; retrying a
// malformed request cannot succeed.
func CompleteWithRetry(ctx context.Context, c Completer, prompt string, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
