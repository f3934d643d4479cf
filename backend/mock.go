package backend

import (
	"context"
	"sync"
	"time"

	"github.com/ZaguanLabs/invlocale"
)

// MockBackend is a scriptable backend for tests. By default it behaves like
// StubBackend; individual locales can be made to fail or stall.
type MockBackend struct {
	Translations map[string]string // Fixed source→translation pairs, applied before the prefix rule

	mu        sync.Mutex
	failures  map[invlocale.Locale]error
	delay     time.Duration
	callCount int
	calls     map[invlocale.Locale]int
	lastReq   *TranslateRequest
}

// NewMockBackend creates a new mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Translations: map[string]string{},
		failures:     map[invlocale.Locale]error{},
		calls:        map[invlocale.Locale]int{},
	}
}

// FailFor makes every call for locale return err. A nil err clears it.
func (m *MockBackend) FailFor(locale invlocale.Locale, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, locale)
		return
	}
	m.failures[locale] = err
}

// SetDelay makes every call wait d or until its context ends.
func (m *MockBackend) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Translate implements Backend.
func (m *MockBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.calls[req.TargetLang]++
	m.lastReq = &req
	failure := m.failures[req.TargetLang]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	out, err := StubBackend{}.Translate(ctx, req)
	if err != nil {
		return nil, err
	}
	for i, text := range req.Texts {
		if fixed, ok := m.Translations[text]; ok {
			out[i] = fixed
		}
	}
	return out, nil
}

// CallCount returns the total number of Translate calls.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallsFor returns the number of Translate calls for locale.
func (m *MockBackend) CallsFor(locale invlocale.Locale) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[locale]
}

// LastRequest returns the most recent request, or nil.
func (m *MockBackend) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// Reset clears counters. Configured failures and delay are kept.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = map[invlocale.Locale]int{}
	m.lastReq = nil
}

var _ Backend = (*MockBackend)(nil)
