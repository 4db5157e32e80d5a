// Package store provides the vector index used for chunk retrieval.
package store

import "errors"

// Metric identifies the similarity metric an index was built with. The
// metric is fixed at construction; callers must embed queries with the same
// convention (normalized vectors for inner product) the index was built
// with.
type Metric string

const (
	// MetricInnerProduct ranks by dot product. Equivalent to cosine
	// similarity when all vectors are L2-normalized.
	MetricInnerProduct Metric = "ip"
	// MetricL2 ranks by squared euclidean distance, smaller is closer.
	MetricL2 Metric = "l2"
)

var (
	// ErrDimensionMismatch indicates a vector of the wrong width.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyIndex indicates a search against an index with no vectors.
	ErrEmptyIndex = errors.New("index is empty")
)

// Result is a single search hit.
type Result struct {
	// Index is the position of the matched vector in insertion order.
	Index int
	// Score is the similarity score. Higher is better for inner product,
	// lower is better for L2.
	Score float32
}

// VectorIndex is an exact-search index over fixed-dimension vectors.
type VectorIndex interface {
	// Add appends vectors to the index in order.
	Add(vectors [][]float32) error

	// Search returns the k nearest vectors to the query, best first.
	// k larger than Len returns all vectors.
	Search(query []float32, k int) ([]Result, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Dim returns the vector dimension.
	Dim() int

	// Metric returns the similarity metric fixed at construction.
	Metric() Metric
}
