// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	backoffBase = 1 * time.Millisecond
}

// scriptedCompleter returns the queued errors in order, then succeeds.
type scriptedCompleter struct {
	calls int32
	errs  []error
	text  string
}

func (s *scriptedCompleter) Complete(_ context.Context, _ string) (string, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if int(n) <= len(s.errs) {
		return "", s.errs[n-1]
	}
	return s.text, nil
}

func TestCompleteWithRetry_ImmediateSuccess(t *testing.T) {
	c := &scriptedCompleter{text: "ok"}

	text, err := CompleteWithRetry(context.Background(), c, "prompt", 2)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&c.calls))
}

func TestCompleteWithRetry_TransientThenSuccess(t *testing.T) {
	c := &scriptedCompleter{
		errs: []error{Transient(fmt.Errorf("rate limited"))},
		text: "recovered",
	}

	text, err := CompleteWithRetry(context.Background(), c, "prompt", 2)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&c.calls))
}

func TestCompleteWithRetry_ZeroValueConfigRetriesOnce(t *testing.T) {
	c := &scriptedCompleter{
		errs: []error{Transient(fmt.Errorf("timeout"))},
		text: "recovered",
	}

	text, err := CompleteWithRetry(context.Background(), c, "prompt", 0)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&c.calls), "zero value must mean the default single retry")
}

func TestCompleteWithRetry_FatalNotRetried(t *testing.T) {
	fatal := fmt.Errorf("malformed request")
	c := &scriptedCompleter{errs: []error{fatal, fatal, fatal}}

	_, err := CompleteWithRetry(context.Background(), c, "prompt", 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&c.calls), "fatal errors must not be retried")
}

func TestCompleteWithRetry_ExhaustsRetries(t *testing.T) {
	transient := Transient(fmt.Errorf("timeout"))
	c := &scriptedCompleter{errs: []error{transient, transient, transient, transient}}

	_, err := CompleteWithRetry(context.Background(), c, "prompt", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, int32(3), atomic.LoadInt32(&c.calls))
}

func TestCompleteWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	backoffBase = 50 * time.Millisecond
	defer func() { backoffBase = 1 * time.Millisecond }()

	c := &scriptedCompleter{errs: []error{Transient(fmt.Errorf("timeout"))}}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := CompleteWithRetry(ctx, c, "prompt", 3)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"wrapped transient", Transient(errors.New("429")), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"transient inside fmt wrap", fmt.Errorf("calling API: %w", Transient(errors.New("503"))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
