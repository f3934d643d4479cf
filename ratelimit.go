package invlocale

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures backend rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int // Maximum requests per minute (default: 60)
	BurstSize         int // Maximum burst size (default: same as RPM)
}

// NewLimiter builds a token bucket limiter from cfg.
func NewLimiter(cfg RateLimitConfig) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// RateLimitedBackend wraps a Backend with rate limiting. All locales of all
// reconciler runs share one limiter, so a fan-out never exceeds the
// backend's quota.
type RateLimitedBackend struct {
	backend Backend
	limiter *rate.Limiter
}

// NewRateLimitedBackend creates a new rate-limited backend.
func NewRateLimitedBackend(backend Backend, cfg RateLimitConfig) *RateLimitedBackend {
	return &RateLimitedBackend{
		backend: backend,
		limiter: NewLimiter(cfg),
	}
}

// Translate implements Backend with rate limiting.
func (b *RateLimitedBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, &BackendError{
			Message:   "rate limit wait cancelled",
			Cause:     err,
			Locale:    req.TargetLang,
			Retryable: false,
		}
	}

	return b.backend.Translate(ctx, req)
}

// Model reports the wrapped backend's model, if it names one.
func (b *RateLimitedBackend) Model() string {
	if m, ok := b.backend.(modelNamer); ok {
		return m.Model()
	}
	return ""
}

// Limiter returns the underlying rate limiter for inspection.
func (b *RateLimitedBackend) Limiter() *rate.Limiter {
	return b.limiter
}
