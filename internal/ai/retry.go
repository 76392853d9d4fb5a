package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Retry runs attempt until it succeeds, returns a non-retryable error, or
// cfg.MaxRetries attempts have been made. Delays grow exponentially from
// cfg.RetryBaseDelay. With MaxRetries <= 1 the attempt runs exactly once.
func Retry(ctx context.Context, cfg ProviderConfig, logger *slog.Logger, attempt func(ctx context.Context) error) error {
	maxAttempts := cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var lastErr error
	for n := 1; n <= maxAttempts; n++ {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// Only retry on retryable errors
		if !IsRetryable(err) || n >= maxAttempts {
			break
		}

		// Calculate backoff delay (exponential: base * 2^(n-1))
		delay := cfg.RetryBaseDelay * time.Duration(1<<(n-1))
		logger.Info("Retrying AI request", "attempt", n, "delay", delay, "error", err)

		timer := clock.NewTimer(delay)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return lastErr
}
