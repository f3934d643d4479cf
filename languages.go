package invlocale

import "strings"

// Locale is a supported language code.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleHR Locale = "hr"
	LocaleDE Locale = "de"
	LocaleFR Locale = "fr"
	LocaleIT Locale = "it"
)

// SourceLocale is the locale listings are authored in.
const SourceLocale = LocaleEN

// SupportedLocales lists every locale content is served in, source first.
var SupportedLocales = []Locale{LocaleEN, LocaleHR, LocaleDE, LocaleFR, LocaleIT}

// LanguageNames maps locale codes to human-readable names for backend prompts.
var LanguageNames = map[Locale]string{
	LocaleEN: "English",
	LocaleHR: "Croatian (Croatia)",
	LocaleDE: "German (Germany)",
	LocaleFR: "French (France)",
	LocaleIT: "Italian (Italy)",
}

// regionalToLocale maps full regional codes to the short codes stored in the
// database.
var regionalToLocale = map[string]Locale{
	"en_us": LocaleEN,
	"en_gb": LocaleEN,
	"hr_hr": LocaleHR,
	"de_de": LocaleDE,
	"de_at": LocaleDE,
	"de_ch": LocaleDE,
	"fr_fr": LocaleFR,
	"fr_be": LocaleFR,
	"it_it": LocaleIT,
}

func (l Locale) String() string {
	return string(l)
}

// IsSource reports whether l is the source locale.
func (l Locale) IsSource() bool {
	return l == SourceLocale
}

// IsSupported reports whether l is one of SupportedLocales.
func (l Locale) IsSupported() bool {
	for _, s := range SupportedLocales {
		if s == l {
			return true
		}
	}
	return false
}

// NonSourceLocales returns the supported locales that need a stored
// translation.
func NonSourceLocales() []Locale {
	out := make([]Locale, 0, len(SupportedLocales)-1)
	for _, l := range SupportedLocales {
		if !l.IsSource() {
			out = append(out, l)
		}
	}
	return out
}

// LookupLocale normalizes code ("HR", "hr-HR", "de_AT") and reports whether
// it names a supported locale.
func LookupLocale(code string) (Locale, bool) {
	norm := strings.ToLower(NormalizeLocale(strings.TrimSpace(code)))
	if norm == "" {
		return "", false
	}
	if l, ok := regionalToLocale[norm]; ok {
		return l, true
	}
	l := Locale(strings.Split(norm, "_")[0])
	if l.IsSupported() {
		return l, true
	}
	return "", false
}

// ParseLocale is LookupLocale with the source locale as fallback for empty
// or unsupported codes.
func ParseLocale(code string) Locale {
	if l, ok := LookupLocale(code); ok {
		return l
	}
	return SourceLocale
}

// GetLanguageName returns the human-readable name for a locale.
// Falls back to the code itself if not found.
func GetLanguageName(l Locale) string {
	if name, ok := LanguageNames[l]; ok {
		return name
	}
	return string(l)
}

// NormalizeLocale converts a language code to the underscore format (e.g., "hr-HR" → "hr_HR").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}
