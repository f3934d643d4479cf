package invlocale

import (
	"strings"
	"time"
)

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleFinancial uses the precise register of investment prospectuses.
	StyleFinancial TranslationStyle = "financial"
)

// Quality tells apart machine-generated translations from human-reviewed ones.
type Quality string

const (
	// QualityMachine marks a translation produced by a backend. It is
	// regenerated whenever the source content changes.
	QualityMachine Quality = "machine"
	// QualityHuman marks a curated translation. The automated path never
	// overwrites it.
	QualityHuman Quality = "human"
)

// ParseQuality parses a quality name. "mt" is accepted for machine.
func ParseQuality(s string) (Quality, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "machine", "mt":
		return QualityMachine, true
	case "human":
		return QualityHuman, true
	}
	return "", false
}

// TranslatableContent is the subset of a listing's fields that is translated.
type TranslatableContent struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	LongDescription string   `json:"longDescription"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
}

// TranslatedContent is TranslatableContent in a target locale plus the
// fields derived from it.
type TranslatedContent struct {
	TranslatableContent
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	Slug            string `json:"slug"`
}

// TranslationRecord is one stored translation of a listing into one locale.
type TranslationRecord struct {
	ID       string `json:"id"`
	EntityID string `json:"entityId"`
	Lang     Locale `json:"lang"`
	TranslatedContent
	Quality    Quality   `json:"quality"`
	SourceHash string    `json:"sourceHash"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Stale reports whether a machine record was generated from content other
// than the one hashing to currentHash. Human records are never stale.
func (r *TranslationRecord) Stale(currentHash string) bool {
	return r.Quality == QualityMachine && r.SourceHash != currentHash
}

// TextNode is a single string sent to a backend.
type TextNode struct {
	Text     string // Original text (trimmed)
	Hash     string // SHA-256 of Text
	NodeType string // "field", "tag" or "html_text"
	Context  string // Disambiguation hint for the backend
}

// IgnoredTags contains HTML tags whose content should not be translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}
