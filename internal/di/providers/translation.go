package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/backend"
	"github.com/ZaguanLabs/invlocale/cache"
	"github.com/ZaguanLabs/invlocale/internal/config"
	"github.com/ZaguanLabs/invlocale/internal/logger"
	"github.com/ZaguanLabs/invlocale/processor"
)

// CacheHandle holds the translation memo. Cache is nil when caching is off.
type CacheHandle struct {
	Cache  invlocale.TranslationCache
	redis  *cache.RedisCache
	memory *cache.InMemoryCache
	log    *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	if h.memory != nil && h.log != nil {
		st := h.memory.Stats()
		h.log.Info("Translation cache closed",
			"entries", st.Entries,
			"hits", st.Hits,
			"misses", st.Misses,
			"evictions", st.Evictions,
		)
	}
	if h.redis != nil {
		return h.redis.Close()
	}
	return nil
}

// ProvideCache provides the translation memo selected by configuration.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ttl := int(cfg.Cache.TTL.Seconds())

	switch cfg.Cache.Kind {
	case "none":
		log.Info("Translation cache disabled")
		return &CacheHandle{}, nil
	case "redis":
		rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{
			URL:       cfg.Cache.RedisURL,
			TTL:       ttl,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect translation cache: %w", err)
		}
		log.Info("Translation cache ready", "kind", "redis")
		return &CacheHandle{Cache: rc, redis: rc}, nil
	default:
		log.Info("Translation cache ready", "kind", "memory", "max_entries", cfg.Cache.MaxEntries)
		memo := cache.NewMemoryCache(cache.MemoryConfig{
			TTL:        cfg.Cache.TTL,
			MaxEntries: cfg.Cache.MaxEntries,
		})
		return &CacheHandle{Cache: memo, memory: memo, log: log}, nil
	}
}

// ProvideBackend provides the translation backend wrapped with retries and
// a shared rate limit.
func ProvideBackend(i do.Injector) (invlocale.Backend, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	b, err := backend.New(backend.Config{
		Kind: backend.Kind(cfg.Translation.Backend),
		OpenAI: backend.OpenAIConfig{
			APIKey:  cfg.Translation.OpenAIKey,
			Model:   cfg.Translation.OpenAIModel,
			BaseURL: cfg.Translation.OpenAIBaseURL,
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.Translation.MaxRetries > 0 {
		retry := invlocale.DefaultRetryConfig()
		retry.MaxRetries = cfg.Translation.MaxRetries
		retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			log.Warn("Retrying translation backend call",
				"attempt", attempt,
				"delay", delay,
				"error", err,
			)
		}
		b = invlocale.NewRetryableBackend(b, retry)
	}
	if cfg.Translation.RequestsPerMinute > 0 {
		b = invlocale.NewRateLimitedBackend(b, invlocale.RateLimitConfig{
			RequestsPerMinute: cfg.Translation.RequestsPerMinute,
		})
	}

	log.Info("Translation backend ready",
		"backend", cfg.Translation.Backend,
		"max_retries", cfg.Translation.MaxRetries,
		"rpm", cfg.Translation.RequestsPerMinute,
	)

	return b, nil
}

// ProvideTranslator provides the content translator.
func ProvideTranslator(i do.Injector) (*invlocale.Translator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	b := do.MustInvoke[invlocale.Backend](i)
	memo := do.MustInvoke[*CacheHandle](i)

	opts := []invlocale.TranslatorOption{
		invlocale.WithTimeout(cfg.Translation.CallTimeout),
		invlocale.WithStyle(invlocale.TranslationStyle(cfg.Translation.Style)),
		invlocale.WithMarkupProcessor(processor.NewHTMLProcessor()),
	}
	if cfg.Translation.Context != "" {
		opts = append(opts, invlocale.WithContext(cfg.Translation.Context))
	}
	if memo.Cache != nil {
		opts = append(opts, invlocale.WithCache(memo.Cache))
	}

	return invlocale.NewTranslator(b, opts...), nil
}
