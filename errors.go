package invlocale

import (
	"fmt"
	"time"
)

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// BackendError indicates a translation backend failure: an API error, a
// timeout, a rate limit or a malformed response. No partial result
// accompanies it.
type BackendError struct {
	Message   string
	Cause     error
	Locale    Locale
	Retryable bool // Whether the operation can be retried
	Timeout   bool // The per-call deadline expired
	// RetryAfter is the backend's advised minimum wait, zero if unknown.
	RetryAfter time.Duration
}

func (e *BackendError) Error() string {
	prefix := "backend error"
	if e.Locale != "" {
		prefix = fmt.Sprintf("backend error (%s)", e.Locale)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// HashError indicates the source content could not be serialized for hashing.
type HashError struct {
	Cause error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash computation failed: %v", e.Cause)
}

func (e *HashError) Unwrap() error {
	return e.Cause
}

// StoreError indicates a persistence failure for one translation row.
type StoreError struct {
	Op       string // "upsert", "get", "list", ...
	EntityID string
	Locale   Locale
	Cause    error
}

func (e *StoreError) Error() string {
	if e.Locale != "" {
		return fmt.Sprintf("store error: %s %s/%s: %v", e.Op, e.EntityID, e.Locale, e.Cause)
	}
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.EntityID, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a markup processing failure.
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the backend returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}
