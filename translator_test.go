package invlocale

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

// prefixBackend tags every string with the upper-cased target locale.
type prefixBackend struct {
	mu        sync.Mutex
	callCount int
	lastReq   TranslateRequest
	err       error
	delay     time.Duration
	short     bool // drop the last result
}

func (b *prefixBackend) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	b.mu.Lock()
	b.callCount++
	b.lastReq = req
	b.mu.Unlock()

	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.err != nil {
		return nil, b.err
	}

	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = "[" + strings.ToUpper(string(req.TargetLang)) + "] " + text
	}
	if b.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func solarFarm() TranslatableContent {
	return TranslatableContent{
		Title:           "Solar Farm",
		Description:     "Clean energy for the coast",
		LongDescription: "A 5MW installation near Split.",
		Category:        "Energy",
		Tags:            []string{"green", "solar"},
	}
}

func TestTranslate_SourceLocalePassthrough(t *testing.T) {
	backend := &prefixBackend{}
	tr := NewTranslator(backend)

	in := solarFarm()
	out, err := tr.Translate(context.Background(), in, LocaleEN)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}

	if !reflect.DeepEqual(out.TranslatableContent, in) {
		t.Errorf("source content changed: %+v", out.TranslatableContent)
	}
	if out.MetaTitle != "Solar Farm" || out.MetaDescription != in.Description || out.Slug != "solar-farm" {
		t.Errorf("unexpected derived fields: %+v", out)
	}
	if backend.callCount != 0 {
		t.Errorf("backend should not be called for the source locale, got %d calls", backend.callCount)
	}

	out.Tags[0] = "mutated"
	if in.Tags[0] != "green" {
		t.Error("passthrough must not alias the caller's tags")
	}
}

func TestTranslate_TargetLocale(t *testing.T) {
	backend := &prefixBackend{}
	tr := NewTranslator(backend)

	out, err := tr.Translate(context.Background(), solarFarm(), LocaleHR)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}

	if out.Title != "[HR] Solar Farm" {
		t.Errorf("Title = %q", out.Title)
	}
	if out.Category != "[HR] Energy" {
		t.Errorf("Category = %q", out.Category)
	}
	if out.LongDescription != "[HR] A 5MW installation near Split." {
		t.Errorf("LongDescription = %q", out.LongDescription)
	}
	if !reflect.DeepEqual(out.Tags, []string{"[HR] green", "[HR] solar"}) {
		t.Errorf("Tags = %v", out.Tags)
	}
	if out.MetaTitle != out.Title || out.MetaDescription != out.Description {
		t.Errorf("meta fields should mirror translated fields: %+v", out)
	}
	if out.Slug != "hr-solar-farm" {
		t.Errorf("Slug = %q", out.Slug)
	}
	if backend.callCount != 1 {
		t.Errorf("expected one batched backend call, got %d", backend.callCount)
	}
	if backend.lastReq.TargetLang != LocaleHR || backend.lastReq.SourceLang != LocaleEN {
		t.Errorf("unexpected request locales: %+v", backend.lastReq)
	}
}

func TestTranslate_DeduplicatesAndSkipsEmpty(t *testing.T) {
	backend := &prefixBackend{}
	tr := NewTranslator(backend)

	content := TranslatableContent{Title: "Energy", Category: "Energy", Tags: []string{"Energy", ""}}
	out, err := tr.Translate(context.Background(), content, LocaleDE)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}

	if len(backend.lastReq.Texts) != 1 {
		t.Errorf("expected one unique text, got %v", backend.lastReq.Texts)
	}
	if out.Description != "" || out.LongDescription != "" {
		t.Errorf("empty fields should stay empty: %+v", out)
	}
	if out.Tags[1] != "" {
		t.Errorf("empty tag should stay empty, got %q", out.Tags[1])
	}
}

func TestTranslate_UsesCache(t *testing.T) {
	backend := &prefixBackend{}
	cache := newMapCache()
	tr := NewTranslator(backend, WithCache(cache))

	ctx := context.Background()
	if _, err := tr.Translate(ctx, solarFarm(), LocaleFR); err != nil {
		t.Fatalf("first Translate() error: %v", err)
	}
	if _, err := tr.Translate(ctx, solarFarm(), LocaleFR); err != nil {
		t.Fatalf("second Translate() error: %v", err)
	}
	if backend.callCount != 1 {
		t.Errorf("second call should be served from cache, got %d backend calls", backend.callCount)
	}

	edited := solarFarm()
	edited.Title = "Solar Park"
	if _, err := tr.Translate(ctx, edited, LocaleFR); err != nil {
		t.Fatalf("third Translate() error: %v", err)
	}
	if !reflect.DeepEqual(backend.lastReq.Texts, []string{"Solar Park"}) {
		t.Errorf("only the changed string should reach the backend, got %v", backend.lastReq.Texts)
	}
}

func TestTranslate_ParallelCachePath(t *testing.T) {
	backend := &prefixBackend{}
	cache := newMapCache()
	tr := NewTranslator(backend, WithCache(cache), WithParallelThreshold(1))

	out, err := tr.Translate(context.Background(), solarFarm(), LocaleIT)
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if out.Title != "[IT] Solar Farm" {
		t.Errorf("Title = %q", out.Title)
	}
	if len(cache.data) != 6 {
		t.Errorf("expected 6 cached strings, got %d", len(cache.data))
	}
}

func TestTranslate_BackendFailure(t *testing.T) {
	cause := errors.New("upstream 500")
	tr := NewTranslator(&prefixBackend{err: cause})

	out, err := tr.Translate(context.Background(), solarFarm(), LocaleDE)
	if out != nil {
		t.Error("no partial result may accompany a failure")
	}

	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BackendError, got %T", err)
	}
	if be.Locale != LocaleDE || be.Timeout {
		t.Errorf("unexpected error fields: %+v", be)
	}
	if !errors.Is(err, cause) {
		t.Error("BackendError should wrap the backend's error")
	}
}

func TestTranslate_BackendErrorGetsLocale(t *testing.T) {
	tr := NewTranslator(&prefixBackend{err: &BackendError{Message: "quota", Retryable: true}})

	_, err := tr.Translate(context.Background(), solarFarm(), LocaleFR)
	var be *BackendError
	if !errors.As(err, &be) || be.Locale != LocaleFR || !be.Retryable {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslate_Timeout(t *testing.T) {
	tr := NewTranslator(&prefixBackend{delay: time.Second}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := tr.Translate(context.Background(), solarFarm(), LocaleHR)
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout was not enforced")
	}

	var be *BackendError
	if !errors.As(err, &be) || !be.Timeout {
		t.Fatalf("expected timeout BackendError, got %v", err)
	}
}

func TestTranslate_CountMismatch(t *testing.T) {
	tr := NewTranslator(&prefixBackend{short: true})

	_, err := tr.Translate(context.Background(), solarFarm(), LocaleHR)
	var cm *CountMismatchError
	if !errors.As(err, &cm) {
		t.Fatalf("expected CountMismatchError inside, got %v", err)
	}
	var be *BackendError
	if !errors.As(err, &be) {
		t.Error("count mismatch should surface as a BackendError")
	}
}

func TestTranslate_NoBackend(t *testing.T) {
	tr := NewTranslator(nil)
	_, err := tr.Translate(context.Background(), solarFarm(), LocaleHR)
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}

func TestTranslate_EmptyTarget(t *testing.T) {
	tr := NewTranslator(&prefixBackend{})
	if _, err := tr.Translate(context.Background(), solarFarm(), ""); err == nil {
		t.Error("empty target should be rejected")
	}
}

func TestTranslate_PassesOptions(t *testing.T) {
	backend := &prefixBackend{}
	glossary := map[string]string{"crowdfunding": "skupno financiranje"}
	tr := NewTranslator(backend,
		WithContext("investment marketplace"),
		WithGlossary(glossary),
		WithExcludedTerms([]string{"ESG"}),
		WithStyle(StyleFinancial),
	)

	if _, err := tr.Translate(context.Background(), solarFarm(), LocaleHR); err != nil {
		t.Fatal(err)
	}

	req := backend.lastReq
	if req.Context != "investment marketplace" || req.Style != StyleFinancial {
		t.Errorf("unexpected request: %+v", req)
	}
	if !reflect.DeepEqual(req.ExcludedTerms, []string{"ESG"}) || req.Glossary["crowdfunding"] == "" {
		t.Errorf("glossary or exclusions not forwarded: %+v", req)
	}
	if len(req.TextContexts) != len(req.Texts) {
		t.Errorf("every text needs a context slot")
	}
}

func TestTranslate_MetaDescriptionCutOnTranslatedPath(t *testing.T) {
	// 400 runes, 800 bytes.
	in := solarFarm()
	in.Description = strings.Repeat("ž", 400)
	tr := NewTranslator(&prefixBackend{})

	out, err := tr.Translate(context.Background(), in, LocaleHR)
	if err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(out.MetaDescription); n != MetaDescriptionLimit {
		t.Errorf("meta description has %d runes, want %d", n, MetaDescriptionLimit)
	}
	if !strings.HasPrefix(out.Description, out.MetaDescription) || !utf8.ValidString(out.MetaDescription) {
		t.Errorf("meta description is not a clean prefix of %q", out.Description)
	}

	src, err := tr.Translate(context.Background(), in, LocaleEN)
	if err != nil {
		t.Fatal(err)
	}
	if src.MetaDescription != in.Description {
		t.Error("source locale meta description must equal the description")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Sunčana", 4, "Sunč"},
		{"short", 10, "short"},
		{"anything", 0, "anything"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

type namedBackend struct {
	prefixBackend
	model string
}

func (b *namedBackend) Model() string { return b.model }

func TestTranslate_MemoSeparatesProfiles(t *testing.T) {
	ctx := context.Background()
	memo := newMapCache()

	first := &namedBackend{model: "gpt-4o-mini"}
	if _, err := NewTranslator(first, WithCache(memo), WithStyle(StyleFinancial)).Translate(ctx, solarFarm(), LocaleDE); err != nil {
		t.Fatal(err)
	}
	entries := len(memo.data)

	// Same settings reuse the memo.
	again := &namedBackend{model: "gpt-4o-mini"}
	if _, err := NewTranslator(again, WithCache(memo), WithStyle(StyleFinancial)).Translate(ctx, solarFarm(), LocaleDE); err != nil {
		t.Fatal(err)
	}
	if again.callCount != 0 {
		t.Errorf("identical settings should hit the memo, got %d calls", again.callCount)
	}

	for name, tr := range map[string]*Translator{
		"model":    NewTranslator(&namedBackend{model: "gpt-4o"}, WithCache(memo), WithStyle(StyleFinancial)),
		"style":    NewTranslator(&namedBackend{model: "gpt-4o-mini"}, WithCache(memo), WithStyle(StyleMarketing)),
		"context":  NewTranslator(&namedBackend{model: "gpt-4o-mini"}, WithCache(memo), WithStyle(StyleFinancial), WithContext("green bonds")),
		"glossary": NewTranslator(&namedBackend{model: "gpt-4o-mini"}, WithCache(memo), WithStyle(StyleFinancial), WithGlossary(map[string]string{"yield": "Rendite"})),
	} {
		if _, err := tr.Translate(ctx, solarFarm(), LocaleDE); err != nil {
			t.Fatal(err)
		}
		if b := tr.backend.(*namedBackend); b.callCount != 1 {
			t.Errorf("%s change served stale memo entries (%d backend calls)", name, b.callCount)
		}
	}
	if len(memo.data) != 5*entries {
		t.Errorf("memo holds %d entries, want %d", len(memo.data), 5*entries)
	}
}

func TestMemoProfile_SeesThroughWrappers(t *testing.T) {
	inner := &namedBackend{model: "gpt-4o"}
	wrapped := NewRateLimitedBackend(NewRetryableBackend(inner, DefaultRetryConfig()), RateLimitConfig{RequestsPerMinute: 60})

	if NewTranslator(inner).profile != NewTranslator(wrapped).profile {
		t.Error("wrapping a backend must not change the memo profile")
	}
	if NewTranslator(inner).profile == NewTranslator(&namedBackend{model: "gpt-4o-mini"}).profile {
		t.Error("different models must not share a memo profile")
	}
}

func TestIsSourceLang(t *testing.T) {
	tr := NewTranslator(nil)
	tests := []struct {
		target Locale
		want   bool
	}{
		{LocaleEN, true},
		{"en_US", true},
		{"EN-gb", true},
		{LocaleHR, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tr.IsSourceLang(tt.target); got != tt.want {
			t.Errorf("IsSourceLang(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestWithSourceLocale(t *testing.T) {
	tr := NewTranslator(&prefixBackend{}, WithSourceLocale(LocaleHR))
	if !tr.IsSourceLang(LocaleHR) || tr.IsSourceLang(LocaleEN) {
		t.Error("source locale option not applied")
	}
	out, err := tr.Translate(context.Background(), solarFarm(), LocaleHR)
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "Solar Farm" {
		t.Errorf("source locale content should pass through, got %q", out.Title)
	}
}

func TestLooksLikeMarkup(t *testing.T) {
	if !looksLikeMarkup("<p>Hi</p>") {
		t.Error("paragraph should look like markup")
	}
	if looksLikeMarkup("returns > 5% < 10%") {
		t.Error("comparison signs out of order are not markup")
	}
	if looksLikeMarkup("plain text") {
		t.Error("plain text is not markup")
	}
}
