package tokenizer

import (
	"strings"

	"golang.org/x/text/language"
)

// BaseLanguage returns the lowercase ISO 639 base of a BCP-47 tag ("en-us" -> "en").
// Unparseable tags fall back to their first subtag; an empty tag yields "".
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if parsed, err := language.Parse(tag); err == nil {
		if base, _ := parsed.Base(); base.String() != "und" {
			return base.String()
		}
	}
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// SameLanguage reports whether two tags share a base language.
// An empty tag matches anything.
func SameLanguage(a, b string) bool {
	baseA, baseB := BaseLanguage(a), BaseLanguage(b)
	if baseA == "" || baseB == "" {
		return true
	}
	return baseA == baseB
}
