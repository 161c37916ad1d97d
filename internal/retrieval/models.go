package retrieval

import (
	"errors"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
)

var ErrInvalidTopK = errors.New("top_k_final must be positive and not exceed top_k_initial")

// RankedDocument is a retrieved document with its raw distance, the
// similarity derived from it and the final priority used for ordering.
// Rank is the 1-based position in the raw nearest-neighbour result.
type RankedDocument struct {
	Document   index.Document
	Position   int
	Rank       int
	Distance   float32
	Similarity float64
	Priority   float64
}

func (r RankedDocument) URL() string {
	return r.Document.URL
}
