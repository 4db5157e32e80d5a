package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryIndex(t *testing.T) {
	idx, err := NewMemoryIndex(3, MetricInnerProduct)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Dim())
	assert.Equal(t, MetricInnerProduct, idx.Metric())
	assert.Equal(t, 0, idx.Len())
}

func TestNewMemoryIndex_Invalid(t *testing.T) {
	_, err := NewMemoryIndex(0, MetricInnerProduct)
	assert.Error(t, err)

	_, err = NewMemoryIndex(3, Metric("cosine"))
	assert.Error(t, err)
}

func TestMemoryIndex_AddDimensionMismatch(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)

	err = idx.Add([][]float32{{1, 0}, {1, 0, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryIndex_SearchInnerProduct(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{
		{1, 0},
		{0, 1},
		{0.7, 0.7},
	}))

	results, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Highest inner product first.
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 2, results[1].Index)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryIndex_SearchL2(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricL2)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{
		{0, 0},
		{3, 4},
	}))

	results, err := idx.Search([]float32{0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Smallest distance first.
	assert.Equal(t, 0, results[0].Index)
	assert.Less(t, results[0].Score, results[1].Score)
}

func TestMemoryIndex_SearchKLargerThanLen(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{{1, 0}}))

	results, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestMemoryIndex_SearchEmpty(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0}, 3)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestMemoryIndex_SearchNonPositiveK(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)

	// k <= 0 asks for nothing, so it wins over the empty-index check:
	// callers that clamp k to Len() get an empty result, not an error.
	results, err := idx.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search([]float32{1, 0}, -1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndex_SearchQueryDimension(t *testing.T) {
	idx, err := NewMemoryIndex(2, MetricInnerProduct)
	require.NoError(t, err)
	require.NoError(t, idx.Add([][]float32{{1, 0}}))

	_, err = idx.Search([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
