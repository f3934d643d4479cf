// Package domain contains the core business entities of the investment listing service.
package domain

import (
	"fmt"
	"time"

	"github.com/ZaguanLabs/invlocale"
)

// InvestmentStatus is the lifecycle stage of a listing.
type InvestmentStatus string

const (
	StatusDraft  InvestmentStatus = "draft"
	StatusActive InvestmentStatus = "active"
	StatusFunded InvestmentStatus = "funded"
	StatusClosed InvestmentStatus = "closed"
)

// Valid reports whether s is a known status.
func (s InvestmentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusFunded, StatusClosed:
		return true
	}
	return false
}

// ParseInvestmentStatus parses a status name.
func ParseInvestmentStatus(s string) (InvestmentStatus, error) {
	status := InvestmentStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown investment status %q", s)
	}
	return status, nil
}

// Investment is an investment opportunity listing.
//
// The translatable fields hold source content unless the investment was read
// in another locale, in which case Locale names the locale they were resolved
// in and Quality the quality of the translation row that supplied them.
type Investment struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	LongDescription string           `json:"longDescription"`
	Category        string           `json:"category"`
	Tags            []string         `json:"tags"`
	Slug            string           `json:"slug"`
	Currency        string           `json:"currency"`
	TargetAmount    int64            `json:"targetAmount"`  // minor units
	MinInvestment   int64            `json:"minInvestment"` // minor units
	Status          InvestmentStatus `json:"status"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`

	Locale  invlocale.Locale  `json:"locale"`
	Quality invlocale.Quality `json:"quality,omitempty"`
}

// Content projects the translatable fields.
func (i *Investment) Content() invlocale.TranslatableContent {
	tags := make([]string, len(i.Tags))
	copy(tags, i.Tags)
	return invlocale.TranslatableContent{
		Title:           i.Title,
		Description:     i.Description,
		LongDescription: i.LongDescription,
		Category:        i.Category,
		Tags:            tags,
	}
}

// SetContent overwrites the translatable fields.
func (i *Investment) SetContent(c invlocale.TranslatableContent) {
	i.Title = c.Title
	i.Description = c.Description
	i.LongDescription = c.LongDescription
	i.Category = c.Category
	i.Tags = append([]string(nil), c.Tags...)
}

// InvestmentFilter narrows a listing query. Zero values mean no constraint.
type InvestmentFilter struct {
	Category string
	Status   InvestmentStatus
	Limit    int
	Offset   int
}

// DefaultPageSize is used when a filter has no limit.
const DefaultPageSize = 20

// MaxPageSize caps the page size of a listing query.
const MaxPageSize = 100

// Normalize clamps Limit and Offset to sane bounds.
func (f InvestmentFilter) Normalize() InvestmentFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
