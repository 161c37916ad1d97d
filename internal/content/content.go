// Package content cleans document text for prompts and citation snippets.
package content

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

const (
	SnippetLength = 150
	Ellipsis      = "..."
)

var (
	htmlTagPattern       = regexp.MustCompile(`(?s)<[^>]+>`)
	markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	markdownLinkPattern  = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headingPattern       = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	emphasisReplacer     = strings.NewReplacer("```", " ", "**", "", "__", "")
)

// Clean strips markup that carries no meaning for the model and collapses
// whitespace to single spaces.
func Clean(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = markdownImagePattern.ReplaceAllString(text, "$1")
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = emphasisReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// Snippet returns the cleaned text cut to at most limit runes at a word
// boundary, followed by an ellipsis when anything was cut. A first word
// longer than limit is cut hard.
func Snippet(text string, limit int) string {
	cleaned := Clean(text)
	runes := []rune(cleaned)
	if len(runes) <= limit {
		return cleaned
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}

	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + Ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
