package sanitize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocs(n int) []retrieval.RankedDocument {
	docs := make([]retrieval.RankedDocument, n)
	for i := range n {
		docs[i] = retrieval.RankedDocument{
			Document: index.Document{
				URL:     fmt.Sprintf("https://example.com/doc/%d", i+1),
				Content: fmt.Sprintf("Content of document %d.", i+1),
			},
			Rank: i + 1,
		}
	}
	return docs
}

func modelOutput(links int) string {
	items := make([]string, links)
	for i := range links {
		items[i] = fmt.Sprintf(`{"url":"https://model.example.com/%d","text":"cited %d"}`, i, i)
	}
	return `{"answer":"Use docker build.","links":[` + strings.Join(items, ",") + `]}`
}

func TestSanitize_AlwaysTwoLinks(t *testing.T) {
	docs := testDocs(3)

	for _, n := range []int{0, 1, 2, 5} {
		t.Run(fmt.Sprintf("%d model links", n), func(t *testing.T) {
			result := Sanitize(modelOutput(n), docs)

			assert.Equal(t, "Use docker build.", result.Answer)
			require.Len(t, result.Links, 2)
			assert.NotEqual(t, result.Links[0].URL, result.Links[1].URL)
		})
	}
}

func TestSanitize_PaddingOrder(t *testing.T) {
	docs := testDocs(3)

	result := Sanitize(modelOutput(1), docs)

	assert.Equal(t, []models.Link{
		{URL: "https://model.example.com/0", Text: "cited 0"},
		{URL: "https://example.com/doc/1", Text: "Content of document 1."},
	}, result.Links)
}

func TestSanitize_PaddingSkipsCitedURL(t *testing.T) {
	docs := testDocs(3)
	raw := `{"answer":"a","links":[{"url":"https://example.com/doc/1/","text":"first"}]}`

	result := Sanitize(raw, docs)

	require.Len(t, result.Links, 2)
	assert.Equal(t, "https://example.com/doc/1/", result.Links[0].URL)
	assert.Equal(t, "https://example.com/doc/2", result.Links[1].URL)
}

func TestSanitize_TruncatesToFirstTwo(t *testing.T) {
	result := Sanitize(modelOutput(5), testDocs(3))

	assert.Equal(t, "https://model.example.com/0", result.Links[0].URL)
	assert.Equal(t, "https://model.example.com/1", result.Links[1].URL)
}

func TestSanitize_SingleDocReused(t *testing.T) {
	result := Sanitize(modelOutput(0), testDocs(1))

	require.Len(t, result.Links, 2)
	assert.Equal(t, "https://example.com/doc/1", result.Links[0].URL)
	assert.Equal(t, "https://example.com/doc/1", result.Links[1].URL)
}

func TestSanitize_ParsedWithoutDocs(t *testing.T) {
	result := Sanitize(modelOutput(1), nil)

	assert.Equal(t, "Use docker build.", result.Answer)
	assert.Len(t, result.Links, 1)
}

func TestSanitize_NormalizesAnswer(t *testing.T) {
	raw := "{\"answer\":\"  line one\\nline two\\r\\nline three \",\"links\":[]}"

	result := Sanitize(raw, testDocs(2))

	assert.Equal(t, "line one line two line three", result.Answer)
}

func TestSanitize_FallbackOnNotJSON(t *testing.T) {
	docs := testDocs(3)

	result := Sanitize("not json", docs)

	assert.True(t, strings.HasPrefix(result.Answer, "I couldn't generate a specific answer"))
	assert.Contains(t, result.Answer, `- "Content of document 1." (Source: https://example.com/doc/1)`)
	assert.Contains(t, result.Answer, `- "Content of document 2." (Source: https://example.com/doc/2)`)
	assert.NotContains(t, result.Answer, "https://example.com/doc/3")
	assert.Equal(t, []models.Link{
		{URL: "https://example.com/doc/1", Text: "Content of document 1."},
		{URL: "https://example.com/doc/2", Text: "Content of document 2."},
	}, result.Links)
}

func TestSanitize_FallbackWithoutDocs(t *testing.T) {
	result := Sanitize("not json", nil)

	assert.True(t, strings.HasSuffix(result.Answer, "No relevant specific snippets found to cite."))
	assert.NotNil(t, result.Links)
	assert.Empty(t, result.Links)
}

func TestSanitize_FallbackOnEmptyAnswer(t *testing.T) {
	result := Sanitize(`{"answer":"   ","links":[{"url":"https://x.example.com","text":"x"}]}`, testDocs(2))

	assert.True(t, strings.HasPrefix(result.Answer, "I couldn't generate a specific answer"))
	assert.Equal(t, "https://example.com/doc/1", result.Links[0].URL)
}

func TestSanitize_FallbackSnippetTruncated(t *testing.T) {
	docs := testDocs(1)
	docs[0].Document.Content = strings.Repeat("lorem ipsum ", 40)

	result := Sanitize("", docs)

	text := result.Links[0].Text
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(text, "..."))), 150)
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(text, "..."), "lorem") || strings.HasSuffix(strings.TrimSuffix(text, "..."), "ipsum"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAnswer string
		wantLinks  []models.Link
	}{
		{
			name:       "plain object",
			raw:        `{"answer":"a","links":[{"url":"https://u","text":"t"}]}`,
			wantAnswer: "a",
			wantLinks:  []models.Link{{URL: "https://u", Text: "t"}},
		},
		{
			name:       "code fence",
			raw:        "```json\n{\"answer\":\"fenced\",\"links\":[]}\n```",
			wantAnswer: "fenced",
			wantLinks:  []models.Link{},
		},
		{
			name:       "prose around object",
			raw:        "Sure! Here is the answer:\n{\"answer\":\"inner\",\"links\":[\"https://bare\"]}\nHope it helps.",
			wantAnswer: "inner",
			wantLinks:  []models.Link{{URL: "https://bare"}},
		},
		{
			name:       "braces inside strings",
			raw:        `Result: {"answer":"use {curly} braces \"}\" freely","links":[]} trailing }`,
			wantAnswer: `use {curly} braces "}" freely`,
			wantLinks:  []models.Link{},
		},
		{
			name:       "skips object without answer",
			raw:        `{"note":"draft"} then {"answer":"second","links":[{"url":"","text":"dropped"},{"url":" https://kept ","text":" t "}]}`,
			wantAnswer: "second",
			wantLinks:  []models.Link{{URL: "https://kept", Text: "t"}},
		},
		{
			name:       "missing links",
			raw:        `{"answer":"only answer"}`,
			wantAnswer: "only answer",
			wantLinks:  []models.Link{},
		},
		{
			name:       "links as a single object",
			raw:        `{"answer":"Use podman.","links":{"url":"https://x.example.com","text":"x"}}`,
			wantAnswer: "Use podman.",
			wantLinks:  []models.Link{{URL: "https://x.example.com", Text: "x"}},
		},
		{
			name:       "links as a bare string",
			raw:        `{"answer":"Use podman.","links":"https://x.example.com"}`,
			wantAnswer: "Use podman.",
			wantLinks:  []models.Link{{URL: "https://x.example.com"}},
		},
		{
			name:       "links of an unexpected type",
			raw:        `{"answer":"Use podman.","links":42}`,
			wantAnswer: "Use podman.",
			wantLinks:  []models.Link{},
		},
		{
			name:       "null links",
			raw:        `{"answer":"Use podman.","links":null}`,
			wantAnswer: "Use podman.",
			wantLinks:  []models.Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Parse(tt.raw)

			parsed, ok := out.(Parsed)
			require.True(t, ok, "expected Parsed, got %#v", out)
			assert.Equal(t, tt.wantAnswer, parsed.Answer)
			assert.Equal(t, tt.wantLinks, parsed.Links)
		})
	}
}

func TestSanitize_KeepsAnswerWhenLinksAreNotAnArray(t *testing.T) {
	docs := testDocs(2)

	for _, raw := range []string{
		`{"answer":"Use podman.","links":{"url":"https://x.example.com","text":"x"}}`,
		`{"answer":"Use podman.","links":"https://x.example.com"}`,
		`{"answer":"Use podman.","links":{"unexpected":true}}`,
	} {
		result := Sanitize(raw, docs)

		assert.Equal(t, "Use podman.", result.Answer, raw)
		assert.Len(t, result.Links, 2, raw)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"answer":`, `{"answer": 42}`, "[1,2,3]", `{"links":[]}`} {
		out := Parse(raw)

		malformed, ok := out.(Malformed)
		require.True(t, ok, "expected Malformed for %q", raw)
		assert.Equal(t, raw, malformed.Raw)
		assert.NotEmpty(t, malformed.Reason)
	}
}

func TestEnforceLinks_FillsEmptyTextFromDocs(t *testing.T) {
	docs := testDocs(2)

	links := EnforceLinks([]models.Link{{URL: "https://example.com/doc/2"}}, docs)

	assert.Equal(t, []models.Link{
		{URL: "https://example.com/doc/2", Text: "Content of document 2."},
		{URL: "https://example.com/doc/1", Text: "Content of document 1."},
	}, links)
}

func TestEnforceLinks_DropsDuplicateModelLinks(t *testing.T) {
	docs := testDocs(2)
	dup := []models.Link{{URL: "https://m.example.com/a", Text: "1"}, {URL: "https://M.example.com/a/", Text: "2"}}

	links := EnforceLinks(dup, docs)

	assert.Equal(t, "https://m.example.com/a", links[0].URL)
	assert.Equal(t, "https://example.com/doc/1", links[1].URL)
}
