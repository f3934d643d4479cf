package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/invlocale"
)

func TestInvestment_ContentCopiesTags(t *testing.T) {
	inv := &Investment{
		Title:           "Solar Farm",
		Description:     "50 MW plant",
		LongDescription: "Long text",
		Category:        "Energy",
		Tags:            []string{"green", "solar"},
	}

	c := inv.Content()
	c.Tags[0] = "mutated"

	assert.Equal(t, "Solar Farm", c.Title)
	assert.Equal(t, "Energy", c.Category)
	assert.Equal(t, "green", inv.Tags[0])
}

func TestInvestment_ContentHashStable(t *testing.T) {
	a := &Investment{Title: "Solar Farm", Tags: []string{"solar", "green"}}
	b := &Investment{Title: "Solar Farm", Tags: []string{"green", "solar"}}

	ha, err := invlocale.ComputeHash(a.Content())
	require.NoError(t, err)
	hb, err := invlocale.ComputeHash(b.Content())
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestInvestment_SetContent(t *testing.T) {
	inv := &Investment{ID: "inv-1", Currency: "EUR"}
	src := invlocale.TranslatableContent{Title: "Vineyard", Category: "Agriculture", Tags: []string{"wine"}}

	inv.SetContent(src)
	src.Tags[0] = "changed"

	assert.Equal(t, "Vineyard", inv.Title)
	assert.Equal(t, []string{"wine"}, inv.Tags)
	assert.Equal(t, "EUR", inv.Currency)
}

func TestParseInvestmentStatus(t *testing.T) {
	for _, s := range []string{"draft", "active", "funded", "closed"} {
		status, err := ParseInvestmentStatus(s)
		require.NoError(t, err)
		assert.Equal(t, InvestmentStatus(s), status)
	}

	_, err := ParseInvestmentStatus("archived")
	assert.Error(t, err)
}

func TestInvestmentFilter_Normalize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, InvestmentFilter{}.Normalize().Limit)
	assert.Equal(t, MaxPageSize, InvestmentFilter{Limit: 500}.Normalize().Limit)
	assert.Equal(t, 0, InvestmentFilter{Offset: -3}.Normalize().Offset)
	assert.Equal(t, 10, InvestmentFilter{Limit: 10}.Normalize().Limit)
}
