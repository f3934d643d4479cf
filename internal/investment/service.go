// Package investment implements the investment listing use cases and hands
// translation work to the reconciler.
package investment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/domain"
	domainerrors "github.com/ZaguanLabs/invlocale/internal/errors"
	"github.com/ZaguanLabs/invlocale/internal/id"
	"github.com/ZaguanLabs/invlocale/internal/reconcile"
	"github.com/ZaguanLabs/invlocale/internal/store"
	"github.com/ZaguanLabs/invlocale/internal/validation"
)

// Repository is the persistence the service needs.
type Repository interface {
	CreateInvestment(ctx context.Context, inv *domain.Investment) error
	UpdateInvestment(ctx context.Context, inv *domain.Investment) error
	DeleteInvestment(ctx context.Context, id string) error
	GetInvestment(ctx context.Context, id string) (*domain.Investment, error)
	FindMany(ctx context.Context, filter domain.InvestmentFilter, locale invlocale.Locale) ([]domain.Investment, int, error)
	FindOne(ctx context.Context, id string, locale invlocale.Locale) (*domain.Investment, error)
	GetTranslation(ctx context.Context, entityID string, lang invlocale.Locale) (*invlocale.TranslationRecord, error)
	GetAllTranslations(ctx context.Context, entityID string) ([]invlocale.TranslationRecord, error)
	UpsertTranslation(ctx context.Context, entityID string, lang invlocale.Locale, content invlocale.TranslatedContent, quality invlocale.Quality, sourceHash string) (bool, error)
}

// Scheduler runs reconciliation in the background.
type Scheduler interface {
	ScheduleCreate(entityID string, content invlocale.TranslatableContent)
	ScheduleEdit(entityID string, content invlocale.TranslatableContent)
}

// Repairer runs the Repair transition synchronously.
type Repairer interface {
	Repair(ctx context.Context, entityID string, content invlocale.TranslatableContent) (*reconcile.Result, error)
}

// CreateInput is the payload for a new listing.
type CreateInput struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description" validate:"required,max=500"`
	LongDescription string     `json:"longDescription" validate:"max=20000"`
	Category        string     `json:"category" validate:"required,max=100"`
	Tags            []string   `json:"tags" validate:"max=20,dive,required,max=50"`
	Currency        string     `json:"currency" validate:"omitempty,len=3,uppercase"`
	TargetAmount    int64      `json:"targetAmount" validate:"gte=0"`
	MinInvestment   int64      `json:"minInvestment" validate:"gte=0"`
	Status          string     `json:"status" validate:"omitempty,oneof=draft active funded closed"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title           *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description     *string   `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	LongDescription *string   `json:"longDescription,omitempty" validate:"omitempty,max=20000"`
	Category        *string   `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Tags            *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,required,max=50"`
	Currency        *string   `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	TargetAmount    *int64    `json:"targetAmount,omitempty" validate:"omitempty,gte=0"`
	MinInvestment   *int64    `json:"minInvestment,omitempty" validate:"omitempty,gte=0"`
	Status          *string   `json:"status,omitempty" validate:"omitempty,oneof=draft active funded closed"`
}

// CurateInput is a human-reviewed translation. Empty derived fields are
// filled from the translated title and description.
type CurateInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=500"`
	LongDescription string   `json:"longDescription" validate:"max=20000"`
	Category        string   `json:"category" validate:"max=100"`
	Tags            []string `json:"tags" validate:"max=20,dive,required,max=50"`
	MetaTitle       string   `json:"metaTitle" validate:"max=200"`
	MetaDescription string   `json:"metaDescription" validate:"max=500"`
	Slug            string   `json:"slug" validate:"max=200"`
}

// ListResult is one page of listings.
type ListResult struct {
	Items  []domain.Investment `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Locale invlocale.Locale    `json:"locale"`
}

// Service implements the listing use cases.
type Service struct {
	repo      Repository
	scheduler Scheduler
	repairer  Repairer
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service.
func NewService(repo Repository, scheduler Scheduler, repairer Repairer, v *validation.Validator, logger *slog.Logger) *Service {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		scheduler: scheduler,
		repairer:  repairer,
		validator: v,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new listing and schedules its translations. The call
// returns as soon as the source row is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Investment, error) {
	in.Tags = normalizeTags(in.Tags)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	invID, err := id.Generate(id.PrefixInvestment)
	if err != nil {
		return nil, domainerrors.Internal("generate id", err)
	}

	now := s.now()
	inv := &domain.Investment{
		ID:              invID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		LongDescription: in.LongDescription,
		Category:        strings.TrimSpace(in.Category),
		Tags:            normalizeTags(in.Tags),
		Currency:        in.Currency,
		TargetAmount:    in.TargetAmount,
		MinInvestment:   in.MinInvestment,
		Status:          domain.StatusDraft,
		SubmittedAt:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
		Locale:          invlocale.SourceLocale,
	}
	if inv.Currency == "" {
		inv.Currency = "EUR"
	}
	if in.Status != "" {
		inv.Status = domain.InvestmentStatus(in.Status)
	}
	if in.SubmittedAt != nil {
		inv.SubmittedAt = in.SubmittedAt.UTC()
	}
	inv.Slug = invlocale.Slugify(inv.Title)

	if err := s.repo.CreateInvestment(ctx, inv); err != nil {
		return nil, domainerrors.Internal("create investment", err)
	}

	s.logger.Info("investment created", slog.String("investment_id", inv.ID))
	s.scheduler.ScheduleCreate(inv.ID, inv.Content())
	return inv, nil
}

// Update applies a partial update. Translations are rescheduled only when a
// translatable field changed.
func (s *Service) Update(ctx context.Context, investmentID string, in UpdateInput) (*domain.Investment, error) {
	if in.Tags != nil {
		tags := normalizeTags(*in.Tags)
		in.Tags = &tags
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	inv, err := s.load(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	before := inv.Content()

	if in.Title != nil {
		inv.Title = strings.TrimSpace(*in.Title)
		inv.Slug = invlocale.Slugify(inv.Title)
	}
	if in.Description != nil {
		inv.Description = strings.TrimSpace(*in.Description)
	}
	if in.LongDescription != nil {
		inv.LongDescription = *in.LongDescription
	}
	if in.Category != nil {
		inv.Category = strings.TrimSpace(*in.Category)
	}
	if in.Tags != nil {
		inv.Tags = normalizeTags(*in.Tags)
	}
	if in.Currency != nil {
		inv.Currency = *in.Currency
	}
	if in.TargetAmount != nil {
		inv.TargetAmount = *in.TargetAmount
	}
	if in.MinInvestment != nil {
		inv.MinInvestment = *in.MinInvestment
	}
	if in.Status != nil {
		inv.Status = domain.InvestmentStatus(*in.Status)
	}
	inv.UpdatedAt = s.now()

	if err := s.repo.UpdateInvestment(ctx, inv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("investment %s not found", investmentID)
		}
		return nil, domainerrors.Internal("update investment", err)
	}

	diff := invlocale.DiffContent(before, inv.Content())
	if diff.HasChanges() {
		s.logger.Info("translatable content changed",
			slog.String("investment_id", inv.ID),
			slog.Any("fields", diff.Changed),
		)
		s.scheduler.ScheduleEdit(inv.ID, inv.Content())
	}
	return inv, nil
}

// Delete removes a listing and its translations.
func (s *Service) Delete(ctx context.Context, investmentID string) error {
	if err := s.repo.DeleteInvestment(ctx, investmentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("investment %s not found", investmentID)
		}
		return domainerrors.Internal("delete investment", err)
	}
	s.logger.Info("investment deleted", slog.String("investment_id", investmentID))
	return nil
}

// Get returns a listing in lang. An empty or unknown lang serves the source.
func (s *Service) Get(ctx context.Context, investmentID, lang string) (*domain.Investment, error) {
	inv, err := s.repo.FindOne(ctx, investmentID, invlocale.ParseLocale(lang))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("investment %s not found", investmentID)
		}
		return nil, domainerrors.Internal("get investment", err)
	}
	return inv, nil
}

// List returns one page of listings in lang.
func (s *Service) List(ctx context.Context, filter domain.InvestmentFilter, lang string) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domainerrors.Validation("invalid status filter").WithDetails(map[string]string{"status": "must be one of: draft active funded closed"})
	}

	locale := invlocale.ParseLocale(lang)
	filter = filter.Normalize()

	items, total, err := s.repo.FindMany(ctx, filter, locale)
	if err != nil {
		return nil, domainerrors.Internal("list investments", err)
	}
	return &ListResult{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Locale: locale,
	}, nil
}

// Translations returns every stored translation row of a listing.
func (s *Service) Translations(ctx context.Context, investmentID string) ([]invlocale.TranslationRecord, error) {
	if _, err := s.load(ctx, investmentID); err != nil {
		return nil, err
	}
	records, err := s.repo.GetAllTranslations(ctx, investmentID)
	if err != nil {
		return nil, domainerrors.Internal("list translations", err)
	}
	return records, nil
}

// RefreshTranslations regenerates missing and stale machine translations
// now and reports the outcome.
func (s *Service) RefreshTranslations(ctx context.Context, investmentID string) (*reconcile.Result, error) {
	inv, err := s.load(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	res, err := s.repairer.Repair(ctx, inv.ID, inv.Content())
	if err != nil {
		return nil, domainerrors.Internal("refresh translations", err)
	}
	return res, nil
}

// CurateTranslation stores a human translation for lang. Automated
// reconciliation never overwrites it.
func (s *Service) CurateTranslation(ctx context.Context, investmentID, lang string, in CurateInput) (*invlocale.TranslationRecord, error) {
	locale, ok := invlocale.LookupLocale(lang)
	if !ok || locale.IsSource() {
		return nil, domainerrors.Validation("unsupported translation locale").
			WithDetails(map[string]string{"lang": "must be a supported locale other than the source locale"})
	}
	in.Tags = normalizeTags(in.Tags)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	inv, err := s.load(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	hash, err := invlocale.ComputeHash(inv.Content())
	if err != nil {
		return nil, domainerrors.Internal("hash source content", err)
	}

	content := invlocale.TranslatedContent{
		TranslatableContent: invlocale.TranslatableContent{
			Title:           strings.TrimSpace(in.Title),
			Description:     strings.TrimSpace(in.Description),
			LongDescription: in.LongDescription,
			Category:        strings.TrimSpace(in.Category),
			Tags:            normalizeTags(in.Tags),
		},
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		Slug:            in.Slug,
	}
	if content.MetaTitle == "" {
		content.MetaTitle = content.Title
	}
	if content.MetaDescription == "" {
		content.MetaDescription = content.Description
	}
	if content.Slug == "" {
		content.Slug = invlocale.Slugify(content.Title)
	}

	if _, err := s.repo.UpsertTranslation(ctx, inv.ID, locale, content, invlocale.QualityHuman, hash); err != nil {
		return nil, domainerrors.Internal("store curated translation", err)
	}
	s.logger.Info("translation curated",
		slog.String("investment_id", inv.ID),
		slog.String("locale", string(locale)),
	)

	rec, err := s.repo.GetTranslation(ctx, inv.ID, locale)
	if err != nil {
		return nil, domainerrors.Internal("read curated translation", err)
	}
	return rec, nil
}

func (s *Service) load(ctx context.Context, investmentID string) (*domain.Investment, error) {
	inv, err := s.repo.GetInvestment(ctx, investmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("investment %s not found", investmentID)
		}
		return nil, domainerrors.Internal("load investment", err)
	}
	return inv, nil
}

// normalizeTags trims tags and drops empty ones and duplicates, keeping the
// first occurrence.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
