package prompt

import (
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/content"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
)

const DefaultMaxContextChars = 2000

const systemPrompt = `You are a teaching assistant. Answer the student's question using ONLY the context documents provided below.
If the context does not contain the answer, say that you do not know. Do not invent facts, commands or URLs.
If an image is attached, use it together with the context to understand the question.

Respond with a single JSON object and nothing else, in exactly this shape:
{
  "answer": "<your answer as plain text>",
  "links": [
    {"url": "<URL of a context document you used>", "text": "<short quote or description of that document>"},
    {"url": "<URL of another context document>", "text": "<short quote or description of that document>"}
  ]
}

The "links" array must contain exactly two entries and each "url" must be copied from a context document.`

type Builder struct {
	maxContextChars int
}

func NewBuilder(maxContextChars int) *Builder {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Builder{
		maxContextChars: maxContextChars,
	}
}

// Build returns the system instruction and a user message carrying the
// question, the numbered context documents and the optional image.
func (b *Builder) Build(question string, docs []retrieval.RankedDocument, image *llm.Image) ([]llm.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.ErrEmptyQuestion
	}

	parts := []llm.Part{llm.TextPart(b.userText(question, docs))}
	if image != nil {
		parts = append(parts, llm.ImagePart(*image))
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Parts: []llm.Part{llm.TextPart(systemPrompt)}},
		{Role: llm.RoleUser, Parts: parts},
	}, nil
}

func (b *Builder) userText(question string, docs []retrieval.RankedDocument) string {
	var sb strings.Builder

	sb.WriteString("Context:\n")
	for i, doc := range docs {
		fmt.Fprintf(&sb, "\n[Document %d]\nURL: %s\n", i+1, doc.URL())
		if title := strings.TrimSpace(doc.Document.Title); title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", title)
		}
		fmt.Fprintf(&sb, "Content: %s\n", content.Snippet(doc.Document.Content, b.maxContextChars))
	}
	if len(docs) == 0 {
		sb.WriteString("(no documents)\n")
	}

	fmt.Fprintf(&sb, "\nQuestion: %s", question)
	return sb.String()
}
