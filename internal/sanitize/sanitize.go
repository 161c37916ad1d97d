package sanitize

import (
	"strings"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/content"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
)

// RequiredLinks is the number of links every answer carries when at least
// one document was retrieved.
const RequiredLinks = 2

const (
	fallbackIntro   = "I couldn't generate a specific answer from the provided context. However, here's some potentially relevant information:\n"
	fallbackNoCites = "No relevant specific snippets found to cite."
)

// Sanitize parses raw and resolves it against docs.
func Sanitize(raw string, docs []retrieval.RankedDocument) models.AnswerResult {
	return Resolve(Parse(raw), docs)
}

func Resolve(out Output, docs []retrieval.RankedDocument) models.AnswerResult {
	switch o := out.(type) {
	case Parsed:
		return models.AnswerResult{
			Answer: normalizeAnswer(o.Answer),
			Links:  EnforceLinks(o.Links, docs),
		}
	case Malformed:
		return Fallback(docs)
	default:
		return Fallback(docs)
	}
}

func normalizeAnswer(answer string) string {
	answer = strings.ReplaceAll(answer, "\r\n", " ")
	answer = strings.ReplaceAll(answer, "\n", " ")
	return strings.TrimSpace(answer)
}

// EnforceLinks returns exactly RequiredLinks links when docs is non-empty.
// Model links are kept in order and truncated. This is not a plain truncation
// of the model's list: a link whose canonical URL repeats an earlier one is
// dropped before truncating, so two model links to the same page count once.
// Missing links are filled from docs in priority order, first with uncited URLs and
// then, when docs run out, by reusing docs from the top. With no docs the
// model links are only truncated.
func EnforceLinks(links []models.Link, docs []retrieval.RankedDocument) []models.Link {
	out := make([]models.Link, 0, RequiredLinks)
	cited := make(map[string]struct{}, RequiredLinks)

	for _, link := range links {
		if len(out) == RequiredLinks {
			break
		}
		key := retrieval.CanonicalURL(link.URL)
		if key == "" {
			continue
		}
		if _, dup := cited[key]; dup {
			continue
		}
		if link.Text == "" {
			link.Text = snippetFor(key, docs)
		}
		cited[key] = struct{}{}
		out = append(out, link)
	}

	for _, doc := range docs {
		if len(out) == RequiredLinks {
			break
		}
		key := retrieval.CanonicalURL(doc.URL())
		if key == "" {
			continue
		}
		if _, dup := cited[key]; dup {
			continue
		}
		cited[key] = struct{}{}
		out = append(out, docLink(doc))
	}

	for i := 0; len(out) < RequiredLinks && len(docs) > 0; i++ {
		out = append(out, docLink(docs[i%len(docs)]))
	}

	return out
}

// Fallback lists up to two top documents with a short snippet each.
func Fallback(docs []retrieval.RankedDocument) models.AnswerResult {
	var sb strings.Builder
	sb.WriteString(fallbackIntro)

	cite := docs[:min(RequiredLinks, len(docs))]
	for _, doc := range cite {
		link := docLink(doc)
		sb.WriteString(`- "` + link.Text + `" (Source: ` + link.URL + ")\n")
	}
	if len(cite) == 0 {
		sb.WriteString(fallbackNoCites)
	}

	return models.AnswerResult{
		Answer: strings.TrimSpace(sb.String()),
		Links:  EnforceLinks(nil, docs),
	}
}

func docLink(doc retrieval.RankedDocument) models.Link {
	return models.Link{
		URL:  doc.URL(),
		Text: content.Snippet(doc.Document.Content, content.SnippetLength),
	}
}

func snippetFor(key string, docs []retrieval.RankedDocument) string {
	for _, doc := range docs {
		if retrieval.CanonicalURL(doc.URL()) == key {
			return content.Snippet(doc.Document.Content, content.SnippetLength)
		}
	}
	return ""
}
