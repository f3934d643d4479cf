// Package backend provides translation backends: an OpenAI adapter, a
// deterministic prefixing stub and a scriptable mock for tests.
package backend

import (
	"fmt"

	"github.com/ZaguanLabs/invlocale"
)

// Backend is an alias to the main package interface.
type Backend = invlocale.Backend

// TranslateRequest is an alias to the main package type.
type TranslateRequest = invlocale.TranslateRequest

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindStub   Kind = "stub"
	KindOpenAI Kind = "openai"
)

// Config selects and configures a backend.
type Config struct {
	Kind   Kind
	OpenAI OpenAIConfig
}

// New builds the backend named by cfg.Kind.
func New(cfg Config) (Backend, error) {
	switch cfg.Kind {
	case KindStub, "":
		return NewStubBackend(), nil
	case KindOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return NewOpenAIBackend(cfg.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}
