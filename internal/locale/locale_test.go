package locale

import "testing"

func TestSplit(t *testing.T) {
	cases := []struct {
		name     string
		tag      string
		language string
		country  string
	}{
		{"hyphen separator", "es-VE", "es", "VE"},
		{"underscore separator", "en_US", "en", "US"},
		{"lowercase country normalized", "pt-br", "pt", "BR"},
		{"uppercase language normalized", "ES-VE", "es", "VE"},
		{"script subtag skipped", "zh-Hant-TW", "zh", "TW"},
		{"three letter language", "fil-PH", "fil", "PH"},
		{"language only", "de", "de", "US"},
		{"empty tag", "", "en", "US"},
		{"whitespace only", "   ", "en", "US"},
		{"separators only", "-_-", "en", "US"},
		{"numeric region skipped", "es-419", "es", "US"},
		{"single letter language ignored", "x-whatever", "en", "US"},
		{"mixed separators", "sr_Latn-RS", "sr", "RS"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			language, country := Split(tc.tag)
			if language != tc.language || country != tc.country {
				t.Errorf("Split(%q) = (%q, %q), want (%q, %q)",
					tc.tag, language, country, tc.language, tc.country)
			}
		})
	}
}
