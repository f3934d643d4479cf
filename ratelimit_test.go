package invlocale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewLimiter_Burst(t *testing.T) {
	limiter := NewLimiter(RateLimitConfig{
		RequestsPerMinute: 60, // 1 per second
		BurstSize:         3,
	})

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("Expected to acquire token %d", i)
		}
	}

	if limiter.Allow() {
		t.Error("Expected fourth acquire to fail")
	}
}

func TestNewLimiter_Defaults(t *testing.T) {
	limiter := NewLimiter(RateLimitConfig{})

	if limiter.Burst() != 60 {
		t.Errorf("Expected default burst 60, got %d", limiter.Burst())
	}
	if float64(limiter.Limit()) != 1.0 {
		t.Errorf("Expected 1 token/s, got %v", limiter.Limit())
	}
}

func TestNewLimiter_Refill(t *testing.T) {
	limiter := NewLimiter(RateLimitConfig{
		RequestsPerMinute: 600, // 10 per second
		BurstSize:         1,
	})

	limiter.Allow()
	if limiter.Allow() {
		t.Error("Expected acquire to fail after drain")
	}

	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Expected acquire to succeed after refill")
	}
}

func TestRateLimitedBackend(t *testing.T) {
	inner := &mockBackendForRateLimit{response: []string{"a"}}
	backend := NewRateLimitedBackend(inner, RateLimitConfig{
		RequestsPerMinute: 600,
		BurstSize:         1,
	})

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := backend.Translate(ctx, TranslateRequest{Texts: []string{"a"}}); err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second call should wait for a token, took %v", elapsed)
	}
	if inner.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", inner.calls)
	}
}

func TestRateLimitedBackend_Cancelled(t *testing.T) {
	inner := &mockBackendForRateLimit{response: []string{"a"}}
	backend := NewRateLimitedBackend(inner, RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         1,
	})

	backend.Limiter().Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := backend.Translate(ctx, TranslateRequest{Texts: []string{"b"}, TargetLang: LocaleIT})
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("Expected BackendError when context cancelled, got %v", err)
	}
	if be.Locale != LocaleIT || be.Retryable {
		t.Errorf("unexpected error fields: %+v", be)
	}
	if inner.calls != 0 {
		t.Error("inner backend must not be called without a token")
	}
}

func TestRateLimitedBackend_Concurrent(t *testing.T) {
	inner := &mockBackendForRateLimit{response: []string{"a"}}
	backend := NewRateLimitedBackend(inner, RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 10})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backend.Translate(context.Background(), TranslateRequest{Texts: []string{"a"}})
		}()
	}
	wg.Wait()

	if inner.Calls() != 10 {
		t.Errorf("Expected 10 calls, got %d", inner.Calls())
	}
}

type mockBackendForRateLimit struct {
	mu       sync.Mutex
	response []string
	calls    int
}

func (m *mockBackendForRateLimit) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.response, nil
}

func (m *mockBackendForRateLimit) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
