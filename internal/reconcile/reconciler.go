// Package reconcile keeps an investment's per-locale translation rows in step
// with its source content.
//
// For one investment the reconciler is in one of three states: Unknown (no
// translation rows), Synced (rows match the current source hash) or Stale
// (the source changed since the rows were generated). Create, Edit and
// Repair move it back to Synced. Per-locale failures are logged and reported
// in the Result; they never fail the call.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ZaguanLabs/invlocale"
)

// State of an investment's translation set.
type State string

const (
	StateUnknown State = "unknown"
	StateSynced  State = "synced"
	StateStale   State = "stale"
)

// Store is the subset of the translation store the reconciler needs.
type Store interface {
	UpsertTranslation(ctx context.Context, entityID string, lang invlocale.Locale, content invlocale.TranslatedContent, quality invlocale.Quality, sourceHash string) (bool, error)
	GetTranslation(ctx context.Context, entityID string, lang invlocale.Locale) (*invlocale.TranslationRecord, error)
	GetSourceHashSample(ctx context.Context, entityID string) (string, bool, error)
}

// ContentTranslator produces translated content for one locale.
type ContentTranslator interface {
	Translate(ctx context.Context, content invlocale.TranslatableContent, target invlocale.Locale) (*invlocale.TranslatedContent, error)
}

// Result reports what one transition did.
type Result struct {
	EntityID string
	Hash     string
	// Previous is the state observed before the transition, State the one
	// after it.
	Previous State
	State    State

	Translated []invlocale.Locale // regenerated and written
	Skipped    []invlocale.Locale // human rows left untouched
	UpToDate   []invlocale.Locale // already at Hash (Repair only)
	Failed     map[invlocale.Locale]error

	mu sync.Mutex
}

func (r *Result) add(list *[]invlocale.Locale, lang invlocale.Locale) {
	r.mu.Lock()
	*list = append(*list, lang)
	r.mu.Unlock()
}

// Writes returns the number of rows written.
func (r *Result) Writes() int {
	return len(r.Translated)
}

// OK reports whether no locale failed.
func (r *Result) OK() bool {
	return len(r.Failed) == 0
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLocales overrides the target locales. The source locale is ignored.
func WithLocales(locales ...invlocale.Locale) Option {
	return func(r *Reconciler) {
		r.locales = nil
		for _, l := range locales {
			if !l.IsSource() {
				r.locales = append(r.locales, l)
			}
		}
	}
}

// WithConcurrency bounds the number of locales processed at once.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reconciler runs the Create, Edit and Repair transitions.
type Reconciler struct {
	store       Store
	translator  ContentTranslator
	locales     []invlocale.Locale
	concurrency int
	logger      *slog.Logger
}

// New creates a Reconciler targeting every non-source locale.
func New(store Store, translator ContentTranslator, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       store,
		translator:  translator,
		locales:     invlocale.NonSourceLocales(),
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Locales returns the target locales.
func (r *Reconciler) Locales() []invlocale.Locale {
	out := make([]invlocale.Locale, len(r.locales))
	copy(out, r.locales)
	return out
}

// Create translates content into every target locale and stores the rows as
// machine translations. Running it again for the same content rewrites the
// same rows.
func (r *Reconciler) Create(ctx context.Context, entityID string, content invlocale.TranslatableContent) (*Result, error) {
	hash, err := invlocale.ComputeHash(content)
	if err != nil {
		return nil, err
	}

	res := newResult(entityID, hash, StateUnknown)
	r.fanOut(ctx, res, func(ctx context.Context, lang invlocale.Locale) {
		r.regenerate(ctx, res, lang, content)
	})
	return r.finish(res, "create"), nil
}

// Edit regenerates machine translations after the source changed. When the
// new hash equals the stored sample nothing is written. Human rows are never
// touched.
func (r *Reconciler) Edit(ctx context.Context, entityID string, content invlocale.TranslatableContent) (*Result, error) {
	hash, err := invlocale.ComputeHash(content)
	if err != nil {
		return nil, err
	}

	stored, ok, err := r.store.GetSourceHashSample(ctx, entityID)
	if err != nil {
		// Without a sample every locale is checked individually.
		r.logger.Warn("source hash sample unavailable",
			slog.String("investment_id", entityID),
			slog.Any("error", err),
		)
	}

	previous := StateUnknown
	if ok {
		previous = StateStale
		if stored == hash {
			return r.finish(&Result{EntityID: entityID, Hash: hash, Previous: StateSynced, State: StateSynced}, "edit"), nil
		}
	}

	res := newResult(entityID, hash, previous)
	r.fanOut(ctx, res, func(ctx context.Context, lang invlocale.Locale) {
		rec, err := r.store.GetTranslation(ctx, entityID, lang)
		if err != nil {
			r.fail(res, lang, err)
			return
		}
		if rec != nil && rec.Quality == invlocale.QualityHuman {
			res.add(&res.Skipped, lang)
			return
		}
		r.regenerate(ctx, res, lang, content)
	})
	return r.finish(res, "edit"), nil
}

// Repair checks every locale on its own and regenerates the machine rows
// that are absent or were generated from other content. It is the manual
// retry for locales left stale by earlier failures.
func (r *Reconciler) Repair(ctx context.Context, entityID string, content invlocale.TranslatableContent) (*Result, error) {
	hash, err := invlocale.ComputeHash(content)
	if err != nil {
		return nil, err
	}

	res := newResult(entityID, hash, StateSynced)
	var sawRow, sawStale bool
	var mu sync.Mutex

	r.fanOut(ctx, res, func(ctx context.Context, lang invlocale.Locale) {
		rec, err := r.store.GetTranslation(ctx, entityID, lang)
		if err != nil {
			r.fail(res, lang, err)
			return
		}

		mu.Lock()
		if rec != nil {
			sawRow = true
		}
		if rec == nil || rec.Stale(hash) {
			sawStale = true
		}
		mu.Unlock()

		switch {
		case rec != nil && rec.Quality == invlocale.QualityHuman:
			res.add(&res.Skipped, lang)
		case rec != nil && rec.SourceHash == hash:
			res.add(&res.UpToDate, lang)
		default:
			r.regenerate(ctx, res, lang, content)
		}
	})

	switch {
	case !sawRow:
		res.Previous = StateUnknown
	case sawStale:
		res.Previous = StateStale
	}
	return r.finish(res, "repair"), nil
}

// fanOut runs fn for every target locale, at most concurrency at a time.
func (r *Reconciler) fanOut(ctx context.Context, res *Result, fn func(context.Context, invlocale.Locale)) {
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, lang := range r.locales {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				r.fail(res, lang, err)
				return nil
			}
			fn(ctx, lang)
			return nil
		})
	}
	_ = g.Wait()
}

// regenerate translates content into lang and writes a machine row.
func (r *Reconciler) regenerate(ctx context.Context, res *Result, lang invlocale.Locale, content invlocale.TranslatableContent) {
	translated, err := r.translator.Translate(ctx, content, lang)
	if err != nil {
		r.fail(res, lang, err)
		return
	}

	written, err := r.store.UpsertTranslation(ctx, res.EntityID, lang, *translated, invlocale.QualityMachine, res.Hash)
	if err != nil {
		r.fail(res, lang, err)
		return
	}
	if !written {
		// A human row appeared between the check and the write.
		res.add(&res.Skipped, lang)
		return
	}
	res.add(&res.Translated, lang)
}

func (r *Reconciler) fail(res *Result, lang invlocale.Locale, err error) {
	res.mu.Lock()
	res.Failed[lang] = err
	res.mu.Unlock()

	r.logger.Warn("locale translation failed",
		slog.String("investment_id", res.EntityID),
		slog.String("locale", string(lang)),
		slog.Any("error", err),
	)
}

func (r *Reconciler) finish(res *Result, op string) *Result {
	if res.Failed == nil {
		res.Failed = map[invlocale.Locale]error{}
	}
	res.State = StateSynced
	sortLocales(res.Translated)
	sortLocales(res.Skipped)
	sortLocales(res.UpToDate)

	r.logger.Info("translations reconciled",
		slog.String("op", op),
		slog.String("investment_id", res.EntityID),
		slog.String("previous", string(res.Previous)),
		slog.Int("translated", len(res.Translated)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("failed", len(res.Failed)),
	)
	return res
}

func newResult(entityID, hash string, previous State) *Result {
	return &Result{
		EntityID: entityID,
		Hash:     hash,
		Previous: previous,
		Failed:   map[invlocale.Locale]error{},
	}
}

func sortLocales(l []invlocale.Locale) {
	sort.Slice(l, func(i, j int) bool { return l[i] < l[j] })
}
