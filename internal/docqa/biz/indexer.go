package biz

import (
	"context"
	"fmt"
	"math"

	"github.com/kart-io/logger"

	"github.com/kart-io/docqa/internal/docqa/store"
	"github.com/kart-io/docqa/pkg/llm"
)

// DefaultEmbedBatchSize is the number of chunks embedded per provider call.
const DefaultEmbedBatchSize = 64

// IndexerConfig controls embedding and index construction.
type IndexerConfig struct {
	// BatchSize is the number of texts per embedding request.
	BatchSize int
	// Normalize controls L2 normalization of embeddings. When true
	// the index uses inner product, which equals cosine similarity
	// on unit vectors. When false the index uses L2 distance.
	Normalize bool
}

// Indexer turns chunk text into a searchable vector index.
type Indexer struct {
	embedder llm.EmbeddingProvider
	cfg      IndexerConfig
}

// NewIndexer creates an Indexer backed by the given embedding provider.
func NewIndexer(embedder llm.EmbeddingProvider, cfg IndexerConfig) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEmbedBatchSize
	}
	return &Indexer{embedder: embedder, cfg: cfg}
}

// BuildIndex embeds chunks in batches and assembles an in-memory index.
// The metric is fixed by the Normalize setting so that stored and query
// vectors are always compared in the same space.
func (ix *Indexer) BuildIndex(ctx context.Context, chunks []string) (store.VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.cfg.BatchSize {
		end := start + ix.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := ix.embedder.Embed(ctx, chunks[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: embed batch %d-%d: %v", llm.ErrModelUnavailable, start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	metric := store.MetricL2
	if ix.cfg.Normalize {
		metric = store.MetricInnerProduct
		for _, v := range vectors {
			normalize(v)
		}
	}

	idx, err := store.NewMemoryIndex(dim, metric)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors); err != nil {
		return nil, err
	}

	logger.Infow("built vector index", "chunks", len(chunks), "dim", dim, "metric", metric)
	return idx, nil
}

// EmbedQuery embeds a single query string, normalized to match the
// index metric.
func (ix *Indexer) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vec, err := ix.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", llm.ErrModelUnavailable, err)
	}
	if ix.cfg.Normalize {
		normalize(vec)
	}
	return vec, nil
}

// normalize scales v to unit L2 norm in place. Zero vectors are left as is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
