package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/domain"
)

// coalescedColumns are resolved per field: the translation's value when it is
// present and non-empty, the source value otherwise.
var coalescedColumns = []string{"title", "description", "long_description", "category", "slug"}

// sourceColumns are never translated.
var sourceColumns = []string{
	"i.id", "i.currency", "i.target_amount", "i.min_investment",
	"i.status", "i.submitted_at", "i.created_at", "i.updated_at",
}

// FindMany returns one page of investments in locale together with the total
// number of matches. The source locale, and any locale that is not
// supported, reads the source table alone.
func (s *Store) FindMany(ctx context.Context, filter domain.InvestmentFilter, locale invlocale.Locale) ([]domain.Investment, int, error) {
	filter = filter.Normalize()

	if !isTranslatedLocale(locale) {
		var models []investmentModel
		q := s.db.NewSelect().Model(&models)
		if filter.Category != "" {
			q = q.Where("i.category = ?", filter.Category)
		}
		if filter.Status != "" {
			q = q.Where("i.status = ?", string(filter.Status))
		}
		total, err := q.
			OrderExpr("i.submitted_at DESC, i.id ASC").
			Limit(filter.Limit).
			Offset(filter.Offset).
			ScanAndCount(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("find investments: %w", err)
		}

		items := make([]domain.Investment, len(models))
		for i := range models {
			items[i] = *models[i].toDomain()
		}
		return items, total, nil
	}

	var rows []localizedRow
	q := s.localizedSelect(locale)
	if filter.Category != "" {
		q = q.Where("COALESCE(NULLIF(t.category, ''), i.category) = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("i.status = ?", string(filter.Status))
	}
	total, err := q.
		OrderExpr("i.submitted_at DESC, i.id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		ScanAndCount(ctx, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("find investments (%s): %w", locale, err)
	}

	items := make([]domain.Investment, len(rows))
	for i := range rows {
		items[i] = *rows[i].toDomain(locale)
	}
	return items, total, nil
}

// FindOne returns one investment in locale, or ErrNotFound.
func (s *Store) FindOne(ctx context.Context, id string, locale invlocale.Locale) (*domain.Investment, error) {
	if !isTranslatedLocale(locale) {
		return s.GetInvestment(ctx, id)
	}

	var row localizedRow
	err := s.localizedSelect(locale).
		Where("i.id = ?", id).
		Limit(1).
		Scan(ctx, &row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find investment %s (%s): %w", id, locale, err)
	}
	return row.toDomain(locale), nil
}

// localizedSelect joins the translation row for locale onto every
// investment and coalesces each translatable field.
func (s *Store) localizedSelect(locale invlocale.Locale) *bun.SelectQuery {
	q := s.db.NewSelect().
		TableExpr("investments AS i").
		Join("LEFT JOIN investment_translations AS t ON t.investment_id = i.id AND t.lang = ?", string(locale))

	for _, col := range sourceColumns {
		q = q.ColumnExpr(col)
	}
	for _, col := range coalescedColumns {
		q = q.ColumnExpr("COALESCE(NULLIF(t.?, ''), i.?) AS ?", bun.Ident(col), bun.Ident(col), bun.Ident(col))
	}

	return q.
		ColumnExpr("COALESCE(NULLIF(NULLIF(t.tags, ''), '[]'), i.tags) AS tags").
		ColumnExpr("COALESCE(t.id, '') AS translation_id").
		ColumnExpr("COALESCE(t.quality, '') AS quality")
}

func isTranslatedLocale(locale invlocale.Locale) bool {
	return locale.IsSupported() && !locale.IsSource()
}
