package index

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// Store is an exact (flat) vector index plus the metadata row for every
// vector. It is never mutated after New returns, so concurrent Search calls
// need no locking.
type Store struct {
	dim     int
	metric  Metric
	vectors []float32
	norms   []float32
	docs    []Document
}

func New(dim int, metric Metric, vectors []float32, docs []Document) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("Unable to build index with dimension %d. Error: %w", dim, ErrDimensionMismatch)
	}
	if len(vectors)%dim != 0 {
		return nil, fmt.Errorf("Vector data holds %d floats, not a multiple of dimension %d. Error: %w", len(vectors), dim, ErrDimensionMismatch)
	}

	size := len(vectors) / dim
	if len(docs) != size {
		return nil, fmt.Errorf("Metadata has %d entries but the index holds %d vectors. Error: %w", len(docs), size, ErrLengthMismatch)
	}

	if metric == "" {
		metric = MetricL2
	}

	s := &Store{
		dim:     dim,
		metric:  metric,
		vectors: vectors,
		docs:    docs,
	}

	if metric == MetricCosine {
		s.norms = make([]float32, size)
		for i := range size {
			s.norms[i] = norm(s.row(i))
		}
	}

	return s, nil
}

func (s *Store) Size() int {
	return len(s.docs)
}

func (s *Store) Dim() int {
	return s.dim
}

func (s *Store) Metric() Metric {
	return s.metric
}

func (s *Store) Document(position int) Document {
	return s.docs[position]
}

func (s *Store) row(i int) []float32 {
	return s.vectors[i*s.dim : (i+1)*s.dim]
}

// Search returns the k nearest positions, nearest first. Equal distances are
// ordered by position.
func (s *Store) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("Query has %d dimensions, index has %d. Error: %w", len(query), s.dim, ErrDimensionMismatch)
	}
	if k > s.Size() {
		k = s.Size()
	}
	if k <= 0 {
		return []Neighbor{}, nil
	}

	var queryNorm float32
	if s.metric == MetricCosine {
		queryNorm = norm(query)
	}

	h := make(neighborHeap, 0, k)
	for i := range s.Size() {
		d := s.distance(i, query, queryNorm)
		candidate := Neighbor{Position: i, Distance: d}
		if len(h) < k {
			heap.Push(&h, candidate)
			continue
		}
		if less(candidate, h[0]) {
			h[0] = candidate
			heap.Fix(&h, 0)
		}
	}

	result := []Neighbor(h)
	sort.Slice(result, func(i, j int) bool {
		return less(result[i], result[j])
	})

	return result, nil
}

func (s *Store) distance(i int, query []float32, queryNorm float32) float32 {
	row := s.row(i)
	switch s.metric {
	case MetricCosine:
		denominator := s.norms[i] * queryNorm
		if denominator == 0 {
			return 1
		}
		return 1 - dot(row, query)/denominator
	default:
		var sum float32
		for j := range row {
			diff := row[j] - query[j]
			sum += diff * diff
		}
		return sum
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

func less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// neighborHeap keeps the current worst candidate on top.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return less(h[j], h[i]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x any) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
