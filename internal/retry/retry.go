// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xj-bear/pdf2all/internal/observability"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// Config holds retry configuration
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

// Backoff returns the wait before retry number attempt (0-based):
// InitialBackoff * 2^attempt, capped at MaxBackoff.
func Backoff(attempt int, cfg Config) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Do calls fn until it succeeds, cfg.MaxRetries retries are spent or ctx is
// done. The last error is returned wrapped with op.
func Do(ctx context.Context, cfg Config, op string, logger *observability.Logger, fn func(context.Context) error) error {
	if logger == nil {
		logger = observability.Nop()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		// Don't wait after last attempt
		if attempt == cfg.MaxRetries {
			break
		}

		backoff := Backoff(attempt, cfg)
		logger.Warn().
			Str("op", op).
			Int("attempt", attempt+1).
			Int("max_retries", cfg.MaxRetries).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", op, cfg.MaxRetries, lastErr)
}
