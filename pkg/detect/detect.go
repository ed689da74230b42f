// Package detect provides signal extractors for product pages: price
// presence, purchasability ("Add to Cart") presence, and literal text
// containment. Extractors are pure functions over raw HTML; they never
// fail on malformed markup — the worst case is a negative Detection.
package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Detection is the result of a single extractor run.
type Detection struct {
	Found    bool   `json:"found"`
	Evidence string `json:"evidence,omitempty"`
}

// evidenceRadius is the number of characters kept on each side of a match
// when building an evidence excerpt.
const evidenceRadius = 160

var whitespacePattern = regexp.MustCompile(`\s+`)

// Snippet returns a whitespace-collapsed excerpt of content centered on idx.
// The cut points back off to rune boundaries so a multibyte character at the
// edge is never split.
func Snippet(content string, idx int) string {
	start := idx - evidenceRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	end := idx + evidenceRadius
	if end > len(content) {
		end = len(content)
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(content[start:end], " "))
}

// FindText performs a case-insensitive substring search for literal
// within content. It is the only extractor whose required value is
// caller-supplied.
func FindText(content, literal string) Detection {
	if literal == "" {
		return Detection{}
	}
	idx := strings.Index(strings.ToLower(content), strings.ToLower(literal))
	if idx < 0 {
		return Detection{}
	}
	return Detection{Found: true, Evidence: Snippet(content, idx)}
}
