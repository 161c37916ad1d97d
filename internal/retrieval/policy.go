package retrieval

import (
	"math"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
)

// SourceWeight scales the similarity of matching documents. A rule matches
// when Source equals the document source (case-insensitive) or URLContains
// is a substring of its URL. The first matching rule wins.
type SourceWeight struct {
	Source      string
	URLContains string
	Weight      float64
}

type Policy struct {
	DefaultWeight   float64
	SourceWeights   []SourceWeight
	RecencyWeight   float64
	RecencyHalfLife time.Duration
	Now             func() time.Time
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultWeight: 1.0,
		Now:           time.Now,
	}
}

// Similarity maps a non-negative distance to (0, 1].
func Similarity(distance float32) float64 {
	d := float64(distance)
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	return 1.0 / (1.0 + d)
}

func (p Policy) weight(doc index.Document) float64 {
	url := strings.ToLower(doc.URL)
	for _, rule := range p.SourceWeights {
		if rule.Source != "" && strings.EqualFold(rule.Source, doc.Source) {
			return rule.Weight
		}
		if rule.URLContains != "" && strings.Contains(url, strings.ToLower(rule.URLContains)) {
			return rule.Weight
		}
	}
	if p.DefaultWeight == 0 {
		return 1.0
	}
	return p.DefaultWeight
}

func (p Policy) recency(doc index.Document) float64 {
	if p.RecencyWeight == 0 || p.RecencyHalfLife <= 0 || doc.CreatedAt.IsZero() {
		return 0
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	age := now().Sub(doc.CreatedAt)
	if age < 0 {
		age = 0
	}
	return p.RecencyWeight * math.Pow(0.5, float64(age)/float64(p.RecencyHalfLife))
}

// Priority is the re-ranking score of a candidate.
func (p Policy) Priority(doc index.Document, distance float32) float64 {
	return Similarity(distance)*p.weight(doc) + p.recency(doc)
}
