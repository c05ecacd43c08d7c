package embedding

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for backend calls.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry
	MaxDelay   time.Duration // Upper bound for any single delay
	Multiplier float64       // Growth factor between delays
}

// DefaultRetryConfig returns the defaults used by NewOpenAIClient.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
	}
}

// Budget is the longest a call made under this policy can take when every
// attempt runs for perAttempt: all attempts plus the backoff between them.
// It returns 0 when perAttempt is not positive.
func (c RetryConfig) Budget(perAttempt time.Duration) time.Duration {
	if perAttempt <= 0 {
		return 0
	}
	total := perAttempt
	backoff := c.BaseDelay
	for range max(c.MaxRetries, 0) {
		total += backoff + perAttempt
		backoff = min(time.Duration(float64(backoff)*c.Multiplier), c.MaxDelay)
	}
	return total
}

// retryWithBackoff calls fn until it succeeds, returns an error for which
// retryable reports false, or the retry budget is spent. It never retries
// once ctx is done.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	backoff := cfg.BaseDelay

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt >= cfg.MaxRetries || !retryable(err) {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxDelay {
			backoff = cfg.MaxDelay
		}
	}
}
