package store

import (
	"fmt"
	"sort"
)

// MemoryIndex is an in-memory exact-search index. Documents here hold a few
// hundred chunks at most, so a full scan beats any approximate structure.
// Safe for concurrent reads once built; Add and Search must not race.
type MemoryIndex struct {
	metric  Metric
	dim     int
	vectors [][]float32
}

var _ VectorIndex = (*MemoryIndex)(nil)

// NewMemoryIndex creates an index for vectors of the given dimension.
func NewMemoryIndex(dim int, metric Metric) (*MemoryIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	if metric != MetricInnerProduct && metric != MetricL2 {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	return &MemoryIndex{
		metric: metric,
		dim:    dim,
	}, nil
}

// Add appends vectors to the index in order.
func (m *MemoryIndex) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != m.dim {
			return fmt.Errorf("%w: vector %d has dim %d, index has %d", ErrDimensionMismatch, i, len(v), m.dim)
		}
	}
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Search returns the k best matches for the query, best first.
func (m *MemoryIndex) Search(query []float32, k int) ([]Result, error) {
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: query has dim %d, index has %d", ErrDimensionMismatch, len(query), m.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if len(m.vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	if k > len(m.vectors) {
		k = len(m.vectors)
	}

	results := make([]Result, len(m.vectors))
	for i, v := range m.vectors {
		results[i] = Result{Index: i, Score: m.score(query, v)}
	}

	if m.metric == MetricL2 {
		sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	} else {
		sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}

	return results[:k], nil
}

// Len returns the number of indexed vectors.
func (m *MemoryIndex) Len() int {
	return len(m.vectors)
}

// Dim returns the vector dimension.
func (m *MemoryIndex) Dim() int {
	return m.dim
}

// Metric returns the similarity metric fixed at construction.
func (m *MemoryIndex) Metric() Metric {
	return m.metric
}

func (m *MemoryIndex) score(query, v []float32) float32 {
	switch m.metric {
	case MetricL2:
		var sum float32
		for i := range query {
			d := query[i] - v[i]
			sum += d * d
		}
		return sum
	default:
		var dot float32
		for i := range query {
			dot += query[i] * v[i]
		}
		return dot
	}
}
