// Package index stores embedded policy chunks and serves
// nearest-neighbor queries over them.
package index

import "context"

// Chunk is one indexed unit of policy text. Every chunk carries full
// provenance so answers can cite document and page.
type Chunk struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"document_name"`
	SourceFile   string    `json:"source_file"`
	PageNumber   int       `json:"page_number"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"-"`
}

// ScoredChunk pairs a chunk with its similarity to a query vector.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// DocumentInfo describes one indexed source document.
type DocumentInfo struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// Store is the vector store behind the retriever. Implementations must
// allow Search calls concurrent with a single Add: a search observes
// either the pre-add or post-add state, never a torn one.
type Store interface {
	// Add appends embedded chunks without touching existing entries.
	Add(ctx context.Context, chunks []Chunk) error

	// Search returns up to limit chunks by descending similarity.
	// Equal scores keep insertion order. A store holding fewer than
	// limit chunks returns what it has, never an error.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredChunk, error)

	// Count reports how many chunks are indexed.
	Count(ctx context.Context) (int, error)

	// Documents lists the distinct source documents in the index.
	Documents(ctx context.Context) ([]DocumentInfo, error)
}
