package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZaguanLabs/invlocale"
)

const upsertTranslationSQL = `
INSERT INTO investment_translations (
	id, investment_id, lang, title, description, long_description, category, tags,
	meta_title, meta_description, slug, quality, source_hash, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (investment_id, lang) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	long_description = EXCLUDED.long_description,
	category = EXCLUDED.category,
	tags = EXCLUDED.tags,
	meta_title = EXCLUDED.meta_title,
	meta_description = EXCLUDED.meta_description,
	slug = EXCLUDED.slug,
	quality = EXCLUDED.quality,
	source_hash = EXCLUDED.source_hash,
	updated_at = EXCLUDED.updated_at`

// machineGuard keeps machine writes off human rows. It is evaluated by the
// database against the row being replaced, in the same statement.
const machineGuard = `
WHERE investment_translations.quality = 'machine'`

// UpsertTranslation inserts or replaces the translation row for
// (entityID, lang) in one statement. Machine writes never replace a human
// row; the returned bool reports whether a row was written.
func (s *Store) UpsertTranslation(
	ctx context.Context,
	entityID string,
	lang invlocale.Locale,
	content invlocale.TranslatedContent,
	quality invlocale.Quality,
	sourceHash string,
) (bool, error) {
	now := time.Now().UTC()

	query := upsertTranslationSQL
	if quality != invlocale.QualityHuman {
		quality = invlocale.QualityMachine
		query += machineGuard
	}

	res, err := s.db.NewRaw(query,
		uuid.NewString(), entityID, string(lang),
		content.Title, content.Description, content.LongDescription, content.Category, tagList(content.Tags),
		content.MetaTitle, content.MetaDescription, content.Slug,
		string(quality), sourceHash, now, now,
	).Exec(ctx)
	if err != nil {
		return false, &invlocale.StoreError{Op: "upsert", EntityID: entityID, Locale: lang, Cause: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &invlocale.StoreError{Op: "upsert", EntityID: entityID, Locale: lang, Cause: err}
	}
	return n > 0, nil
}

// GetTranslation returns the row for (entityID, lang), or nil when absent.
func (s *Store) GetTranslation(ctx context.Context, entityID string, lang invlocale.Locale) (*invlocale.TranslationRecord, error) {
	var m translationModel
	err := s.db.NewSelect().
		Model(&m).
		Where("t.investment_id = ?", entityID).
		Where("t.lang = ?", string(lang)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &invlocale.StoreError{Op: "get", EntityID: entityID, Locale: lang, Cause: err}
	}
	return m.toRecord(), nil
}

// GetAllTranslations returns every row for entityID ordered by lang.
func (s *Store) GetAllTranslations(ctx context.Context, entityID string) ([]invlocale.TranslationRecord, error) {
	var models []translationModel
	err := s.db.NewSelect().
		Model(&models).
		Where("t.investment_id = ?", entityID).
		OrderExpr("t.lang ASC").
		Scan(ctx)
	if err != nil {
		return nil, &invlocale.StoreError{Op: "list", EntityID: entityID, Cause: err}
	}

	records := make([]invlocale.TranslationRecord, len(models))
	for i := range models {
		records[i] = *models[i].toRecord()
	}
	return records, nil
}

// GetSourceHashSample returns the source hash of one translation row of
// entityID: the most recently written machine row, else the most recent
// human row. A locale whose last regeneration failed keeps an older hash,
// so it never wins over locales that were written afterwards. The bool is
// false when the entity has no translations.
func (s *Store) GetSourceHashSample(ctx context.Context, entityID string) (string, bool, error) {
	var hash string
	err := s.db.NewSelect().
		Model((*translationModel)(nil)).
		Column("source_hash").
		Where("t.investment_id = ?", entityID).
		OrderExpr("CASE WHEN t.quality = ? THEN 0 ELSE 1 END, t.updated_at DESC, t.lang ASC", string(invlocale.QualityMachine)).
		Limit(1).
		Scan(ctx, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, &invlocale.StoreError{Op: "sample", EntityID: entityID, Cause: err}
	}
	return hash, true, nil
}
