// Package retry provides bounded exponential backoff for best-effort
// storage writes.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/wallet-resolver/internal/logging"
)

// Config configures retry behavior
type Config struct {
	MaxAttempts  int           // Maximum number of attempts
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the delay between retries
	Multiplier   float64       // Multiplier for exponential backoff
}

// DefaultConfig returns the retry configuration used by the seeder.
// Pattern: 200ms, 400ms, 800ms.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is an attempt of the retried operation
type Func func(ctx context.Context, attempt int) error

// Do executes fn with exponential backoff until it succeeds, the attempts
// are exhausted, or the context is cancelled. Returns the last error.
func Do(ctx context.Context, config *Config, fn Func) error {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == config.MaxAttempts {
			break
		}

		delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}

		logging.WithError(lastErr).WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Debug("Retrying after failure")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
