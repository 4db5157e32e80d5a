package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/docqa/internal/pkg/textutil"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 3
	// DefaultChunkCharLimit caps each retrieved chunk before it enters
	// the prompt. Longer chunks are cut and marked with an ellipsis.
	DefaultChunkCharLimit = 400
)

// RetrieverConfig controls retrieval behavior.
type RetrieverConfig struct {
	TopK           int
	ChunkCharLimit int
}

// Retriever finds the chunks most relevant to a question within a
// processed document.
type Retriever struct {
	indexer *Indexer
	cfg     RetrieverConfig
}

// NewRetriever creates a Retriever. Zero config fields fall back to defaults.
func NewRetriever(indexer *Indexer, cfg RetrieverConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ChunkCharLimit <= 0 {
		cfg.ChunkCharLimit = DefaultChunkCharLimit
	}
	return &Retriever{indexer: indexer, cfg: cfg}
}

// Retrieve embeds the question and returns the top chunks by
// similarity, each truncated to the configured character limit.
// Fewer than TopK chunks are returned when the document is small.
func (r *Retriever) Retrieve(ctx context.Context, doc *DocEntry, question string) ([]string, error) {
	query, err := r.indexer.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	k := r.cfg.TopK
	if n := doc.Index.Len(); k > n {
		k = n
	}
	results, err := doc.Index.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]string, 0, len(results))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(doc.Chunks) {
			continue
		}
		chunks = append(chunks, textutil.TruncateRunes(doc.Chunks[res.Index], r.cfg.ChunkCharLimit, "..."))
	}
	return chunks, nil
}
