package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "html tags and entities", input: "<p>Use <code>docker run</code> &amp; wait</p>", want: "Use docker run & wait"},
		{name: "markdown link", input: "See [the docs](https://example.com/docs) now", want: "See the docs now"},
		{name: "markdown image", input: "![diagram](img.png) explains it", want: "diagram explains it"},
		{name: "headings and emphasis", input: "## Setup\n**Install** the __tool__", want: "Setup Install the tool"},
		{name: "code fences", input: "```bash\nuv run app.py\n```", want: "bash uv run app.py"},
		{name: "whitespace", input: "  a \n\n\t b  ", want: "a b"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestSnippet_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short text", Snippet("  short   text ", SnippetLength))
}

func TestSnippet_CutsAtWordBoundary(t *testing.T) {
	text := strings.Repeat("word ", 40) // 200 chars

	got := Snippet(text, SnippetLength)

	assert.True(t, strings.HasSuffix(got, Ellipsis))
	body := strings.TrimSuffix(got, Ellipsis)
	assert.LessOrEqual(t, utf8.RuneCountInString(body), SnippetLength)
	assert.True(t, strings.HasSuffix(body, "word"))
	assert.Equal(t, strings.Repeat("word ", 30)[:149], body)
}

func TestSnippet_WordEndingExactlyAtLimit(t *testing.T) {
	text := strings.Repeat("a", 150) + " tail"

	got := Snippet(text, SnippetLength)

	assert.Equal(t, strings.Repeat("a", 150)+Ellipsis, got)
}

func TestSnippet_SingleLongWordIsCutHard(t *testing.T) {
	got := Snippet(strings.Repeat("x", 200), SnippetLength)

	assert.Equal(t, strings.Repeat("x", 150)+Ellipsis, got)
}

func TestSnippet_NeverSplitsWords(t *testing.T) {
	words := []string{"retrieval", "is", "a", "multilingual", "écrit", "über", "process", "of", "deterministic", "ranking"}
	var b strings.Builder
	for i := range 60 {
		b.WriteString(words[i%len(words)])
		b.WriteString(" ")
	}
	cleaned := Clean(b.String())

	for limit := 20; limit <= SnippetLength; limit += 7 {
		got := Snippet(cleaned, limit)
		body := strings.TrimSuffix(got, Ellipsis)

		assert.LessOrEqual(t, utf8.RuneCountInString(body), limit)
		assert.True(t, strings.HasPrefix(cleaned, body))

		rest := strings.TrimPrefix(cleaned, body)
		assert.True(t, rest == "" || strings.HasPrefix(rest, " "), "limit %d split a word: %q", limit, body)
	}
}
