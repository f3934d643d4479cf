package invlocale

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

// MetaDescriptionLimit is the rune length translated meta descriptions are
// cut to.
const MetaDescriptionLimit = 160

// Translator turns source content into TranslatedContent for one locale at
// a time. It holds no per-locale state and is safe for concurrent use when
// its backend and cache are.
type Translator struct {
	sourceLang        Locale
	backend           Backend
	cache             TranslationCache
	excludedTerms     []string
	context           string
	glossary          map[string]string
	style             TranslationStyle
	markup            ContentProcessor
	timeout           time.Duration
	parallelThreshold int
	profile           string // memo key segment, see memoProfile
}

// Backend is the interface for translation backends.
type Backend interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// TranslateRequest contains the parameters for a translation request.
type TranslateRequest struct {
	Texts         []string
	TargetLang    Locale
	SourceLang    Locale
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// ContentProcessor extracts translatable text from markup and writes the
// translations back.
type ContentProcessor interface {
	Extract(content string) (interface{}, []TextNode, error)
	Apply(parsed interface{}, nodes []TextNode, translations map[string]string) (string, error)
	ContentType() string
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLocale sets the source locale.
func WithSourceLocale(lang Locale) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) TranslatorOption {
	return func(t *Translator) {
		t.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *Translator) {
		t.style = style
	}
}

// WithMarkupProcessor enables markup-aware translation of long
// descriptions. Only the text nodes are sent to the backend.
func WithMarkupProcessor(p ContentProcessor) TranslatorOption {
	return func(t *Translator) {
		t.markup = p
	}
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(d time.Duration) TranslatorOption {
	return func(t *Translator) {
		t.timeout = d
	}
}

// WithParallelThreshold sets the number of strings from which cache lookups
// run concurrently.
func WithParallelThreshold(n int) TranslatorOption {
	return func(t *Translator) {
		t.parallelThreshold = n
	}
}

// NewTranslator creates a Translator that delegates to backend.
func NewTranslator(backend Backend, opts ...TranslatorOption) *Translator {
	t := &Translator{
		sourceLang:        SourceLocale,
		backend:           backend,
		style:             StyleNeutral,
		timeout:           DefaultTimeout,
		parallelThreshold: 5,
	}

	for _, opt := range opts {
		opt(t)
	}
	t.profile = t.memoProfile()

	return t
}

// fieldRef points at one string of the content being translated.
type fieldRef struct {
	text     string
	nodeType string
	context  string
}

// Translate returns content in target. For the source locale the content
// comes back unchanged with derived fields filled in. For any other locale
// every translatable string is resolved from the cache or the backend; a
// backend failure or timeout yields a *BackendError and no result.
func (t *Translator) Translate(ctx context.Context, content TranslatableContent, target Locale) (*TranslatedContent, error) {
	if t.IsSourceLang(target) {
		return derive(cloneContent(content), 0), nil
	}
	if target == "" {
		return nil, &TranslationError{Message: "target locale is required"}
	}

	refs := []fieldRef{
		{text: content.Title, nodeType: "field", context: "investment title"},
		{text: content.Description, nodeType: "field", context: "short investment summary"},
		{text: content.Category, nodeType: "field", context: "investment category name"},
	}
	for _, tag := range content.Tags {
		refs = append(refs, fieldRef{text: tag, nodeType: "tag", context: "short keyword tag"})
	}

	var (
		parsed    interface{}
		htmlNodes []TextNode
	)
	useMarkup := t.markup != nil && looksLikeMarkup(content.LongDescription)
	if useMarkup {
		var err error
		parsed, htmlNodes, err = t.markup.Extract(content.LongDescription)
		if err != nil {
			return nil, err
		}
	} else {
		refs = append(refs, fieldRef{text: content.LongDescription, nodeType: "field", context: "detailed investment description"})
	}

	nodes := make([]TextNode, 0, len(refs)+len(htmlNodes))
	for _, r := range refs {
		trimmed := strings.TrimSpace(r.text)
		if trimmed == "" {
			continue
		}
		nodes = append(nodes, TextNode{
			Text:     trimmed,
			Hash:     HashText(trimmed),
			NodeType: r.nodeType,
			Context:  r.context,
		})
	}
	nodes = append(nodes, htmlNodes...)

	translations, err := t.translateNodes(ctx, nodes, target)
	if err != nil {
		return nil, err
	}

	lookup := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return s
		}
		return translations[HashText(s)]
	}

	out := TranslatableContent{
		Title:       lookup(content.Title),
		Description: lookup(content.Description),
		Category:    lookup(content.Category),
		Tags:        make([]string, len(content.Tags)),
	}
	for i, tag := range content.Tags {
		out.Tags[i] = lookup(tag)
	}

	if useMarkup {
		out.LongDescription, err = t.markup.Apply(parsed, htmlNodes, translations)
		if err != nil {
			return nil, err
		}
	} else {
		out.LongDescription = lookup(content.LongDescription)
	}

	return derive(out, MetaDescriptionLimit), nil
}

// translateNodes resolves every node to a translation keyed by node hash.
func (t *Translator) translateNodes(ctx context.Context, nodes []TextNode, target Locale) (map[string]string, error) {
	keyFor := func(hash string) string { return t.memoKey(hash, target) }
	translations, misses := LookupMemo(ctx, t.cache, nodes, keyFor, t.parallelThreshold)

	if len(misses) == 0 {
		return translations, nil
	}
	if t.backend == nil {
		return nil, &BackendError{Message: "no backend configured", Locale: target}
	}

	texts := make([]string, len(misses))
	textContexts := make([]string, len(misses))
	for i, node := range misses {
		texts[i] = node.Text
		textContexts[i] = node.Context
	}

	results, err := t.callBackend(ctx, TranslateRequest{
		Texts:         texts,
		TargetLang:    target,
		SourceLang:    t.sourceLang,
		ExcludedTerms: t.excludedTerms,
		Context:       t.context,
		TextContexts:  textContexts,
		Glossary:      t.glossary,
		Style:         t.style,
	})
	if err != nil {
		return nil, err
	}

	for i, node := range misses {
		translations[node.Hash] = results[i]
		if t.cache != nil {
			_ = t.cache.Set(ctx, keyFor(node.Hash), results[i])
		}
	}

	return translations, nil
}

// callBackend runs one backend call under the per-call timeout and
// normalizes every failure into a *BackendError.
func (t *Translator) callBackend(ctx context.Context, req TranslateRequest) ([]string, error) {
	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	results, err := t.backend.Translate(callCtx, req)
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) {
			if be.Locale == "" {
				be.Locale = req.TargetLang
			}
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				be.Timeout = true
			}
			return nil, be
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &BackendError{Message: "call timed out", Cause: err, Locale: req.TargetLang, Timeout: true}
		}
		return nil, &BackendError{Message: "translation failed", Cause: err, Locale: req.TargetLang}
	}

	if len(results) != len(req.Texts) {
		return nil, &BackendError{
			Message: "malformed response",
			Cause:   &CountMismatchError{Expected: len(req.Texts), Got: len(results)},
			Locale:  req.TargetLang,
		}
	}

	return results, nil
}

// IsSourceLang reports whether target is the source locale, in which case
// translation is bypassed.
func (t *Translator) IsSourceLang(target Locale) bool {
	return normalizeBaseLang(string(target)) == normalizeBaseLang(string(t.sourceLang))
}

// modelNamer is implemented by backends, and backend wrappers, that know
// which model produces their output.
type modelNamer interface {
	Model() string
}

// memoProfile fingerprints the settings that shape backend output, so memo
// entries written under another model, style, context, glossary or
// exclusion list are never served.
func (t *Translator) memoProfile() string {
	var b strings.Builder
	if m, ok := t.backend.(modelNamer); ok {
		b.WriteString(m.Model())
	}
	b.WriteString("\x00" + string(t.style) + "\x00" + t.context + "\x00")

	terms := append([]string(nil), t.excludedTerms...)
	sort.Strings(terms)
	b.WriteString(strings.Join(terms, "\x1f"))

	keys := make([]string, 0, len(t.glossary))
	for k := range t.glossary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\x00" + k + "\x1f" + t.glossary[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:6])
}

// memoKey is the memo key of one source string translated into target.
func (t *Translator) memoKey(hash string, target Locale) string {
	return CacheKeyExtended(hash, t.sourceLang, target, t.profile)
}

// derive fills the SEO fields from the (translated) content. A positive
// metaLimit cuts the meta description to that many runes.
func derive(c TranslatableContent, metaLimit int) *TranslatedContent {
	return &TranslatedContent{
		TranslatableContent: c,
		MetaTitle:           c.Title,
		MetaDescription:     truncateRunes(c.Description, metaLimit),
		Slug:                Slugify(c.Title),
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func cloneContent(c TranslatableContent) TranslatableContent {
	if c.Tags != nil {
		tags := make([]string, len(c.Tags))
		copy(tags, c.Tags)
		c.Tags = tags
	}
	return c
}

func looksLikeMarkup(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

// normalizeBaseLang extracts the base language code (e.g., "en" from "en_US").
func normalizeBaseLang(lang string) string {
	base := strings.Split(NormalizeLocale(lang), "_")[0]
	return strings.ToLower(base)
}
