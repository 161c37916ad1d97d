package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(n int) []Document {
	out := make([]Document, n)
	for i := range out {
		out[i] = Document{ID: string(rune('a' + i)), URL: "https://example.com/" + string(rune('a'+i))}
	}
	return out
}

func TestNew_LengthMismatch(t *testing.T) {
	vectors := []float32{0, 0, 1, 1, 2, 2}

	_, err := New(2, MetricL2, vectors, docs(2))

	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Contains(t, err.Error(), "Metadata has 2 entries but the index holds 3 vectors")
}

func TestNew_RaggedVectors(t *testing.T) {
	_, err := New(2, MetricL2, []float32{0, 0, 1}, docs(1))
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_L2Ordering(t *testing.T) {
	vectors := []float32{
		5, 5,
		0, 0,
		1, 0,
		0, 3,
	}
	store, err := New(2, MetricL2, vectors, docs(4))
	require.NoError(t, err)

	neighbors, err := store.Search([]float32{0, 0}, 3)
	require.NoError(t, err)

	require.Len(t, neighbors, 3)
	assert.Equal(t, []int{1, 2, 3}, positions(neighbors))
	assert.Equal(t, float32(0), neighbors[0].Distance)
	assert.Equal(t, float32(1), neighbors[1].Distance)
	assert.Equal(t, float32(9), neighbors[2].Distance)
}

func TestSearch_TiesOrderedByPosition(t *testing.T) {
	vectors := []float32{
		1, 0,
		0, 1,
		-1, 0,
		0, -1,
	}
	store, err := New(2, MetricL2, vectors, docs(4))
	require.NoError(t, err)

	for range 5 {
		neighbors, err := store.Search([]float32{0, 0}, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, positions(neighbors))
	}
}

func TestSearch_KClippedToSize(t *testing.T) {
	store, err := New(1, MetricL2, []float32{1, 2}, docs(2))
	require.NoError(t, err)

	neighbors, err := store.Search([]float32{0}, 750)
	require.NoError(t, err)
	assert.Len(t, neighbors, 2)

	neighbors, err = store.Search([]float32{0}, 0)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestSearch_EmptyStore(t *testing.T) {
	store, err := New(3, MetricL2, nil, nil)
	require.NoError(t, err)

	neighbors, err := store.Search([]float32{1, 2, 3}, 10)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	store, err := New(2, MetricL2, []float32{1, 2}, docs(1))
	require.NoError(t, err)

	_, err = store.Search([]float32{1, 2, 3}, 1)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_Cosine(t *testing.T) {
	vectors := []float32{
		10, 0,
		0, 1,
		1, 1,
	}
	store, err := New(2, MetricCosine, vectors, docs(3))
	require.NoError(t, err)

	neighbors, err := store.Search([]float32{1, 0}, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 1}, positions(neighbors))
	assert.InDelta(t, 0.0, neighbors[0].Distance, 1e-6)
	assert.InDelta(t, 1.0, neighbors[2].Distance, 1e-6)
}

func TestGate(t *testing.T) {
	gate := NewGate()

	_, ok := gate.Store()
	assert.False(t, ok)
	assert.False(t, gate.Ready())

	first, err := New(1, MetricL2, []float32{1}, docs(1))
	require.NoError(t, err)
	second, err := New(1, MetricL2, []float32{2}, docs(1))
	require.NoError(t, err)

	assert.True(t, gate.Set(first))
	assert.False(t, gate.Set(second))

	got, ok := gate.Store()
	assert.True(t, ok)
	assert.Same(t, first, got)
}

func positions(neighbors []Neighbor) []int {
	out := make([]int, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.Position
	}
	return out
}
