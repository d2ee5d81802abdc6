package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(context.Background(), fastRetry(2), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastRetry(5), func(context.Context) error {
		calls++
		return Permanent(errors.New("forbidden"))
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_CustomPredicate(t *testing.T) {
	calls := 0
	opts := fastRetry(5)
	opts.ShouldRetry = func(error) bool { return false }

	err := WithRetry(context.Background(), opts, func(context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.EqualError(t, err, "nope")
	assert.Equal(t, 1, calls)
}

func TestWithRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Hour}

	err := WithRetry(ctx, opts, func(context.Context) error {
		cancel()
		return errors.New("flaky")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryOptions_Backoff(t *testing.T) {
	opts := RetryOptions{InitialDelay: time.Second, MaxDelay: 5 * time.Second}.withDefaults()

	assert.Equal(t, time.Second, opts.backoff(1, errors.New("x")))
	assert.Equal(t, 2*time.Second, opts.backoff(2, errors.New("x")))
	assert.Equal(t, 4*time.Second, opts.backoff(3, errors.New("x")))
	assert.Equal(t, 5*time.Second, opts.backoff(4, errors.New("x")))
	assert.Equal(t, 5*time.Second, opts.backoff(1, ErrRateLimit))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("timeout")))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(context.Canceled))
	assert.NoError(t, Permanent(nil))
}
