package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetry_SingleAttemptByDefault(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), ProviderConfig{}, discardLogger(), func(ctx context.Context) error {
		calls++
		return EAIUnavailable
	})

	assert.ErrorIs(t, err, EAIUnavailable)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	cfg := ProviderConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond}
	err := Retry(context.Background(), cfg, discardLogger(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return EAIRateLimit
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	cfg := ProviderConfig{MaxRetries: 5, RetryBaseDelay: time.Millisecond}
	err := Retry(context.Background(), cfg, discardLogger(), func(ctx context.Context) error {
		calls++
		return EAIUnauthorized
	})

	assert.ErrorIs(t, err, EAIUnauthorized)
	assert.Equal(t, 1, calls)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	cfg := ProviderConfig{MaxRetries: 2, RetryBaseDelay: time.Millisecond}
	err := Retry(context.Background(), cfg, discardLogger(), func(ctx context.Context) error {
		calls++
		return EAITimeout
	})

	assert.ErrorIs(t, err, EAITimeout)
	assert.Equal(t, 2, calls)
}

func TestRetry_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := ProviderConfig{MaxRetries: 3, RetryBaseDelay: time.Hour}
	err := Retry(ctx, cfg, discardLogger(), func(ctx context.Context) error {
		cancel()
		return EAIUnavailable
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_BackoffFollowsClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cfg := ProviderConfig{MaxRetries: 3, RetryBaseDelay: time.Second, Clock: clock}

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Retry(context.Background(), cfg, discardLogger(), func(ctx context.Context) error {
			if calls.Add(1) < 3 {
				return EAIUnavailable
			}
			return nil
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// First backoff waits RetryBaseDelay.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 1, calls.Load())
	clock.Advance(time.Second)

	// Second backoff doubles.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 2, calls.Load())
	clock.Advance(2 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Retry did not return after the clock advanced")
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(EAIRateLimit))
	assert.True(t, IsRetryable(WrapError("generate", EAITimeout)))
	assert.True(t, IsRetryable(EAIUnavailable))
	assert.False(t, IsRetryable(EAIUnauthorized))
	assert.False(t, IsRetryable(EAIBlocked))
	assert.False(t, IsRetryable(errors.New("boom")))
}
