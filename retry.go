package invlocale

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig controls how RetryableBackend backs off between attempts.
type RetryConfig struct {
	MaxRetries int           // Attempts after the first one
	BaseDelay  time.Duration // Delay before the first retry, doubled per attempt
	MaxDelay   time.Duration // Upper bound for any single delay
	// Jitter spreads each delay randomly over [d*(1-Jitter), d]. Locales of
	// one fan-out that fail together then retry apart.
	Jitter float64
	// OnRetry, if set, is called before every sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns the backoff used by the service.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.2,
	}
}

// delay returns the wait before retry number attempt (0-based). A backend
// hint in err raises the delay but never past MaxDelay.
func (c RetryConfig) delay(attempt int, err error) time.Duration {
	d := c.BaseDelay
	for i := 0; i < attempt && d < math.MaxInt64/2; i++ {
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			break
		}
		d *= 2
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	if c.Jitter > 0 && d > 0 {
		j := min(c.Jitter, 1)
		d -= time.Duration(rand.Float64() * j * float64(d))
	}

	var be *BackendError
	if errors.As(err, &be) && be.RetryAfter > d {
		d = be.RetryAfter
		if c.MaxDelay > 0 && d > c.MaxDelay {
			d = c.MaxDelay
		}
	}
	return d
}

// RetryFunc is one attempt of a retried operation.
type RetryFunc[T any] func(ctx context.Context, attempt int) (T, error)

// WithRetry runs fn until it succeeds, fails with an error IsRetryable
// rejects, or runs out of attempts. The last error is returned unchanged.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		wait := cfg.delay(attempt, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is a *BackendError marked Retryable.
// Context cancellation and expired deadlines are final even when wrapped
// in a retryable error.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var backendErr *BackendError
	return errors.As(err, &backendErr) && backendErr.Retryable
}

// RetryableBackend retries transient backend failures with backoff.
type RetryableBackend struct {
	backend Backend
	config  RetryConfig
}

// NewRetryableBackend wraps backend with the retry policy cfg.
func NewRetryableBackend(backend Backend, cfg RetryConfig) *RetryableBackend {
	return &RetryableBackend{backend: backend, config: cfg}
}

// Translate implements Backend.
func (b *RetryableBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	return WithRetry(ctx, b.config, func(ctx context.Context, _ int) ([]string, error) {
		return b.backend.Translate(ctx, req)
	})
}

// Model reports the wrapped backend's model, if it names one.
func (b *RetryableBackend) Model() string {
	if m, ok := b.backend.(modelNamer); ok {
		return m.Model()
	}
	return ""
}

var _ Backend = (*RetryableBackend)(nil)
