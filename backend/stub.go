package backend

import (
	"context"
	"strings"
)

// StubBackend marks every string with its target locale ("[HR] Solar Farm")
// instead of translating it. It never fails and makes no network calls,
// which suits local development and demo data.
type StubBackend struct{}

// NewStubBackend creates a stub backend.
func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

// Translate implements Backend.
func (StubBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := "[" + strings.ToUpper(string(req.TargetLang)) + "] "
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = prefix + text
	}
	return out, nil
}

// Model names the stub so its memo entries never mix with a real model's.
func (StubBackend) Model() string {
	return "stub"
}

var _ Backend = StubBackend{}
