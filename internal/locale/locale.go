// Package locale extracts the language and country from BCP 47-ish locale
// tags as devices actually report them ("es-VE", "en_US", "zh-Hant-TW").
package locale

import "strings"

// Defaults used when a tag carries no usable subtag. Targeting rules always
// have something to compare against; a device with a broken locale config
// behaves like an English/US one rather than escaping locale rules entirely.
const (
	DefaultLanguage = "en"
	DefaultCountry  = "US"
)

// Split returns the lowercase language and uppercase country of a locale
// tag. Both separators in the wild ("-" and "_") are accepted, script
// subtags ("Hant") are skipped, and anything unparseable falls back to the
// defaults. Split never fails.
func Split(tag string) (language, country string) {
	language, country = DefaultLanguage, DefaultCountry

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return language, country
	}

	parts := strings.FieldsFunc(tag, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) == 0 {
		return language, country
	}

	if len(parts[0]) >= 2 && len(parts[0]) <= 3 {
		language = strings.ToLower(parts[0])
	}

	// The country is the first two-letter subtag after the language. Script
	// subtags are four letters and numeric region codes three digits, so a
	// two-letter match is unambiguous.
	for _, p := range parts[1:] {
		if len(p) == 2 && isAlpha(p) {
			country = strings.ToUpper(p)
			break
		}
	}
	return language, country
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
