// Package retriever turns a question into its most relevant policy
// chunks.
package retriever

import (
	"context"
	"fmt"

	"github.com/bull/policy-assistant/internal/index"
)

// DefaultK is how many chunks a query pulls into the answer context.
const DefaultK = 6

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever wraps a vector store with a fixed query configuration.
// It is immutable: reindexing builds a new Retriever rather than
// mutating one that concurrent queries may be using.
type Retriever struct {
	store    index.Store
	embedder Embedder
	k        int
}

// New creates a Retriever. A non-positive k selects DefaultK.
func New(store index.Store, embedder Embedder, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{store: store, embedder: embedder, k: k}
}

// Retrieve embeds the question and returns up to k chunks, most
// relevant first. Scores are dropped; rank order is kept.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]index.Chunk, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	scored, err := r.store.Search(ctx, vectors[0], r.k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]index.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	return chunks, nil
}

// K reports the configured result count.
func (r *Retriever) K() int { return r.k }
