package retrieval

import (
	"fmt"
	"sort"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/rs/zerolog"
)

type Retriever struct {
	policy Policy
	logger *zerolog.Logger
}

func NewRetriever(policy Policy, logger *zerolog.Logger) *Retriever {
	return &Retriever{
		policy: policy,
		logger: logger,
	}
}

// Retrieve fetches topKInitial nearest neighbours, re-ranks them by policy
// priority, keeps the first occurrence of every URL and returns at most
// topKFinal documents. An empty result is not an error.
func (r *Retriever) Retrieve(store *index.Store, query []float32, topKInitial int, topKFinal int) ([]RankedDocument, error) {
	if topKFinal <= 0 || topKFinal > topKInitial {
		return nil, fmt.Errorf("top_k_initial=%d top_k_final=%d: %w", topKInitial, topKFinal, ErrInvalidTopK)
	}

	neighbors, err := store.Search(query, topKInitial)
	if err != nil {
		return nil, fmt.Errorf("Unable to search index. Error: %w", err)
	}

	candidates := make([]RankedDocument, 0, len(neighbors))
	for i, n := range neighbors {
		doc := store.Document(n.Position)
		candidates = append(candidates, RankedDocument{
			Document:   doc,
			Position:   n.Position,
			Rank:       i + 1,
			Distance:   n.Distance,
			Similarity: Similarity(n.Distance),
			Priority:   r.policy.Priority(doc, n.Distance),
		})
	}

	// candidates are in rank order, so a stable sort breaks priority ties by rank
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	seen := make(map[string]struct{}, topKFinal)
	results := make([]RankedDocument, 0, topKFinal)
	skipped := 0
	for _, c := range candidates {
		key := CanonicalURL(c.Document.URL)
		if key == "" {
			skipped++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, c)
		if len(results) == topKFinal {
			break
		}
	}

	r.logger.Debug().
		Int("candidates", len(candidates)).
		Int("without_url", skipped).
		Int("returned", len(results)).
		Msg("Retrieval complete")

	return results, nil
}
