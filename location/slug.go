package location

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	dashRun      = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a URL slug: lowercase, whitespace runs
// (unicode.IsSpace) become "-", anything outside [a-z0-9-] is dropped, dashes
// are collapsed and trimmed. Distinct names may produce the same slug.
func Slugify(name string) string {
	s := strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), "-")
	s = invalidChars.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// titleFromSlug is the lossy fallback used when a slug matches nothing in
// the table: "kota-bharu" -> "Kota Bharu".
func titleFromSlug(slug string) string {
	caser := cases.Title(language.Und)
	words := strings.Split(slug, "-")
	out := words[:0]
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, caser.String(w))
	}
	return strings.Join(out, " ")
}
