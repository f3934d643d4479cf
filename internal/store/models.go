package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/domain"
)

// tagList persists a tag sequence as a JSON array string.
type tagList []string

// Value implements driver.Valuer. A nil list is stored as "[]".
func (t tagList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (t *tagList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = tagList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("tags: unsupported column type %T", src)
	}
	if len(data) == 0 {
		*t = tagList{}
		return nil
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	*t = tags
	return nil
}

type investmentModel struct {
	bun.BaseModel `bun:"table:investments,alias:i"`

	ID              string    `bun:"id,pk"`
	Title           string    `bun:"title,notnull"`
	Description     string    `bun:"description,notnull"`
	LongDescription string    `bun:"long_description,notnull"`
	Category        string    `bun:"category,notnull"`
	Tags            tagList   `bun:"tags,type:text,notnull"`
	Slug            string    `bun:"slug,notnull"`
	Currency        string    `bun:"currency,notnull"`
	TargetAmount    int64     `bun:"target_amount,notnull"`
	MinInvestment   int64     `bun:"min_investment,notnull"`
	Status          string    `bun:"status,notnull"`
	SubmittedAt     time.Time `bun:"submitted_at,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

type translationModel struct {
	bun.BaseModel `bun:"table:investment_translations,alias:t"`

	ID              string    `bun:"id,pk"`
	InvestmentID    string    `bun:"investment_id,notnull"`
	Lang            string    `bun:"lang,notnull"`
	Title           string    `bun:"title,notnull"`
	Description     string    `bun:"description,notnull"`
	LongDescription string    `bun:"long_description,notnull"`
	Category        string    `bun:"category,notnull"`
	Tags            tagList   `bun:"tags,type:text,notnull"`
	MetaTitle       string    `bun:"meta_title,notnull"`
	MetaDescription string    `bun:"meta_description,notnull"`
	Slug            string    `bun:"slug,notnull"`
	Quality         string    `bun:"quality,notnull"`
	SourceHash      string    `bun:"source_hash,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

// localizedRow is one row of a language-aware read.
type localizedRow struct {
	ID              string    `bun:"id"`
	Title           string    `bun:"title"`
	Description     string    `bun:"description"`
	LongDescription string    `bun:"long_description"`
	Category        string    `bun:"category"`
	Tags            tagList   `bun:"tags"`
	Slug            string    `bun:"slug"`
	Currency        string    `bun:"currency"`
	TargetAmount    int64     `bun:"target_amount"`
	MinInvestment   int64     `bun:"min_investment"`
	Status          string    `bun:"status"`
	SubmittedAt     time.Time `bun:"submitted_at"`
	CreatedAt       time.Time `bun:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at"`
	TranslationID   string    `bun:"translation_id"`
	Quality         string    `bun:"quality"`
}

func investmentFromDomain(inv *domain.Investment) *investmentModel {
	return &investmentModel{
		ID:              inv.ID,
		Title:           inv.Title,
		Description:     inv.Description,
		LongDescription: inv.LongDescription,
		Category:        inv.Category,
		Tags:            tagList(inv.Tags),
		Slug:            inv.Slug,
		Currency:        inv.Currency,
		TargetAmount:    inv.TargetAmount,
		MinInvestment:   inv.MinInvestment,
		Status:          string(inv.Status),
		SubmittedAt:     inv.SubmittedAt.UTC(),
		CreatedAt:       inv.CreatedAt.UTC(),
		UpdatedAt:       inv.UpdatedAt.UTC(),
	}
}

func (m *investmentModel) toDomain() *domain.Investment {
	return &domain.Investment{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		LongDescription: m.LongDescription,
		Category:        m.Category,
		Tags:            nonNilTags(m.Tags),
		Slug:            m.Slug,
		Currency:        m.Currency,
		TargetAmount:    m.TargetAmount,
		MinInvestment:   m.MinInvestment,
		Status:          domain.InvestmentStatus(m.Status),
		SubmittedAt:     m.SubmittedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Locale:          invlocale.SourceLocale,
	}
}

func (r *localizedRow) toDomain(lang invlocale.Locale) *domain.Investment {
	inv := &domain.Investment{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		LongDescription: r.LongDescription,
		Category:        r.Category,
		Tags:            nonNilTags(r.Tags),
		Slug:            r.Slug,
		Currency:        r.Currency,
		TargetAmount:    r.TargetAmount,
		MinInvestment:   r.MinInvestment,
		Status:          domain.InvestmentStatus(r.Status),
		SubmittedAt:     r.SubmittedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Locale:          invlocale.SourceLocale,
	}
	if r.TranslationID != "" {
		inv.Locale = lang
		inv.Quality = invlocale.Quality(r.Quality)
	}
	return inv
}

func (m *translationModel) toRecord() *invlocale.TranslationRecord {
	return &invlocale.TranslationRecord{
		ID:       m.ID,
		EntityID: m.InvestmentID,
		Lang:     invlocale.Locale(m.Lang),
		TranslatedContent: invlocale.TranslatedContent{
			TranslatableContent: invlocale.TranslatableContent{
				Title:           m.Title,
				Description:     m.Description,
				LongDescription: m.LongDescription,
				Category:        m.Category,
				Tags:            nonNilTags(m.Tags),
			},
			MetaTitle:       m.MetaTitle,
			MetaDescription: m.MetaDescription,
			Slug:            m.Slug,
		},
		Quality:    invlocale.Quality(m.Quality),
		SourceHash: m.SourceHash,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func nonNilTags(t tagList) []string {
	if t == nil {
		return []string{}
	}
	return []string(t)
}
