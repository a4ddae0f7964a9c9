// Package locale defines the supported site locales and the translation
// fallback used for vehicle text fields.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported site locale code.
type Locale string

const (
	Italian Locale = "it"
	English Locale = "en"
	German  Locale = "de"

	// Default is the locale every translation falls back to.
	Default = Italian
)

var supported = []Locale{Italian, English, German}

var matcher = language.NewMatcher([]language.Tag{
	language.Italian,
	language.English,
	language.German,
})

// Supported returns the supported locales, default first.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Valid reports whether l is one of the supported locales.
func (l Locale) Valid() bool {
	for _, s := range supported {
		if s == l {
			return true
		}
	}
	return false
}

func (l Locale) String() string { return string(l) }

// Tag returns the BCP 47 tag for l.
func (l Locale) Tag() language.Tag {
	switch l {
	case English:
		return language.English
	case German:
		return language.German
	default:
		return language.Italian
	}
}

// Parse maps a path segment or language tag to a supported locale. Exact codes
// win; otherwise the closest supported language is chosen, and anything
// unrecognized yields Default.
func Parse(s string) Locale {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if l.Valid() {
		return l
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Default
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// FromAcceptLanguage picks the best supported locale for an Accept-Language
// header value.
func FromAcceptLanguage(header string) Locale {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// Resolve returns the translation for loc, falling back to the Italian
// translation and then to raw. The result is never empty when raw is not.
func Resolve(translations map[string]string, loc Locale, raw string) string {
	if v := strings.TrimSpace(translations[string(loc)]); v != "" {
		return translations[string(loc)]
	}
	if v := strings.TrimSpace(translations[string(Default)]); v != "" {
		return translations[string(Default)]
	}
	return raw
}
