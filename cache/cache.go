// Package cache provides translation memo implementations. Entries map a
// per-string key (text hash and target locale) to the backend's output, so
// re-translating unchanged strings after an edit costs no backend call.
package cache

import "context"

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a translation in the cache.
	Set(ctx context.Context, key string, value string) error
}

// EnumerableCache is a cache whose live entries can be listed for export.
type EnumerableCache interface {
	TranslationCache
	Entries(ctx context.Context) (map[string]string, error)
}
