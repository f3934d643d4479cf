package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/invlocale"
	"github.com/ZaguanLabs/invlocale/internal/domain"
)

func TestFindOne_FallsBackWithoutTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())

	got, err := s.FindOne(ctx, inv.ID, invlocale.LocaleDE)
	require.NoError(t, err)
	assert.Equal(t, "Solar Farm", got.Title)
	assert.Equal(t, inv.Description, got.Description)
	assert.Equal(t, inv.LongDescription, got.LongDescription)
	assert.Equal(t, "Energy", got.Category)
	assert.Equal(t, []string{"green", "solar"}, got.Tags)
	assert.Equal(t, invlocale.SourceLocale, got.Locale)
	assert.Empty(t, got.Quality)
}

func TestFindOne_PrefersTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())

	_, err := s.UpsertTranslation(ctx, inv.ID, invlocale.LocaleHR, translated("[HR] ", inv), invlocale.QualityMachine, "h1")
	require.NoError(t, err)

	got, err := s.FindOne(ctx, inv.ID, invlocale.LocaleHR)
	require.NoError(t, err)
	assert.Equal(t, "[HR] Solar Farm", got.Title)
	assert.Equal(t, "[HR] Energy", got.Category)
	assert.Equal(t, []string{"[HR] green", "[HR] solar"}, got.Tags)
	assert.Equal(t, "hr-solar-farm", got.Slug)
	assert.Equal(t, invlocale.LocaleHR, got.Locale)
	assert.Equal(t, invlocale.QualityMachine, got.Quality)
	assert.Equal(t, "EUR", got.Currency)

	// Source reads never join.
	src, err := s.FindOne(ctx, inv.ID, invlocale.LocaleEN)
	require.NoError(t, err)
	assert.Equal(t, "Solar Farm", src.Title)
}

func TestFindOne_FieldLevelFallback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())

	partial := invlocale.TranslatedContent{
		TranslatableContent: invlocale.TranslatableContent{Title: "Solarna farma"},
	}
	_, err := s.UpsertTranslation(ctx, inv.ID, invlocale.LocaleHR, partial, invlocale.QualityHuman, "h1")
	require.NoError(t, err)

	got, err := s.FindOne(ctx, inv.ID, invlocale.LocaleHR)
	require.NoError(t, err)
	assert.Equal(t, "Solarna farma", got.Title)
	assert.Equal(t, inv.Description, got.Description)
	assert.Equal(t, "Energy", got.Category)
	assert.Equal(t, []string{"green", "solar"}, got.Tags)
	assert.Equal(t, inv.Slug, got.Slug)
	assert.Equal(t, invlocale.QualityHuman, got.Quality)
}

func TestFindOne_UnsupportedLocaleDegradesToSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())

	got, err := s.FindOne(ctx, inv.ID, invlocale.Locale("ja"))
	require.NoError(t, err)
	assert.Equal(t, "Solar Farm", got.Title)
	assert.Equal(t, invlocale.SourceLocale, got.Locale)
}

func TestFindOne_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindOne(context.Background(), "inv-missing", invlocale.LocaleHR)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindOne(context.Background(), "inv-missing", invlocale.LocaleEN)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindMany_CategoryFilterMatchesCoalescedValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Robotics Fund", "Technology", time.Now())

	_, err := s.UpsertTranslation(ctx, inv.ID, invlocale.LocaleHR, translated("[HR] ", inv), invlocale.QualityMachine, "h1")
	require.NoError(t, err)

	items, total, err := s.FindMany(ctx, domain.InvestmentFilter{Category: "[HR] Technology"}, invlocale.LocaleHR)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, inv.ID, items[0].ID)

	items, total, err = s.FindMany(ctx, domain.InvestmentFilter{Category: "Technology"}, invlocale.LocaleHR)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)

	// The source locale filters on the source column.
	items, _, err = s.FindMany(ctx, domain.InvestmentFilter{Category: "Technology"}, invlocale.LocaleEN)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFindMany_UntranslatedRowsFilterOnSourceCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedInvestment(t, s, "inv-1", "Robotics Fund", "Technology", time.Now())

	items, total, err := s.FindMany(ctx, domain.InvestmentFilter{Category: "Technology"}, invlocale.LocaleDE)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}

func TestFindMany_OrderingAndPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"inv-a", "inv-b", "inv-c", "inv-d"} {
		seedInvestment(t, s, id, "Listing "+id, "Energy", base.Add(time.Duration(i)*time.Hour))
	}

	for _, locale := range []invlocale.Locale{invlocale.LocaleEN, invlocale.LocaleFR} {
		t.Run(string(locale), func(t *testing.T) {
			page, total, err := s.FindMany(ctx, domain.InvestmentFilter{Limit: 2, Offset: 1}, locale)
			require.NoError(t, err)
			assert.Equal(t, 4, total)
			require.Len(t, page, 2)
			assert.Equal(t, "inv-c", page[0].ID)
			assert.Equal(t, "inv-b", page[1].ID)
		})
	}
}

func TestFindMany_StatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())
	seedInvestment(t, s, "inv-2", "Wind Park", "Energy", time.Now())

	inv.Status = domain.StatusFunded
	require.NoError(t, s.UpdateInvestment(ctx, inv))

	items, total, err := s.FindMany(ctx, domain.InvestmentFilter{Status: domain.StatusFunded}, invlocale.LocaleIT)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "inv-1", items[0].ID)
}

func TestFindMany_StaleTranslationStillServed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inv := seedInvestment(t, s, "inv-1", "Solar Farm", "Energy", time.Now())

	_, err := s.UpsertTranslation(ctx, inv.ID, invlocale.LocaleHR, translated("[HR] ", inv), invlocale.QualityMachine, "old-hash")
	require.NoError(t, err)

	// Source edited, translation not yet regenerated.
	inv.Title = "Solar Farm Extended"
	require.NoError(t, s.UpdateInvestment(ctx, inv))

	got, err := s.FindOne(ctx, inv.ID, invlocale.LocaleHR)
	require.NoError(t, err)
	assert.Equal(t, "[HR] Solar Farm", got.Title)
}
