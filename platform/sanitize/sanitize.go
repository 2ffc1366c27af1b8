// Package sanitize provides text cleanup for content pulled from third-party pages.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var spaceRegex = regexp.MustCompile(`\s+`)

// StripHTML removes all HTML tags from a string and decodes entities, making
// it safe for text-only display.
func StripHTML(s string) string {
	result := textContent(s)
	// Re-strip after entity decode to catch encoded tags
	if strings.Contains(result, "<") {
		result = textContent(result)
	}
	return strings.TrimSpace(result)
}

func textContent(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// Text strips HTML and collapses runs of whitespace into single spaces.
// Use for search titles and snippets before heuristics run on them.
func Text(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(StripHTML(s), " "))
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
