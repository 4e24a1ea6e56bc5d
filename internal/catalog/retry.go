package catalog

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/remediz/internal/level"
)

// RetryConfig controls retry behavior for catalog fetches.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns sensible defaults for the remediation API.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetrySource is a decorator that retries transient fetch errors with
// exponential backoff and jitter.
type RetrySource struct {
	inner  Source
	config RetryConfig
}

// WithRetry wraps a Source with retry logic.
func WithRetry(s Source, cfg RetryConfig) Source {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetrySource{inner: s, config: cfg}
}

func (r *RetrySource) Fetch(ctx context.Context, learner level.Level) ([]Video, error) {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		videos, err := r.inner.Fetch(ctx, learner)
		if err == nil {
			return videos, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return nil, err
		}

		// Last attempt: no sleep, return the error.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	return nil, lastErr
}

func (r *RetrySource) Name() string {
	return r.inner.Name()
}

// shouldRetry determines if a fetch error is transient.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A malformed document will not fix itself.
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return false
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable()
	}
	return true
}

// backoff computes the wait duration for the given attempt.
func (r *RetrySource) backoff(attempt int) time.Duration {
	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
