package index

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	vectorsFile = "vectors.gob"
	chunksFile  = "chunks.json"
)

// LocalStore is a brute-force cosine-similarity store persisted to a
// directory: a binary vector file plus a JSON side table holding chunk
// metadata in insertion order. Mutation holds the write lock; searches
// run under the read lock, so a search sees the index before or after
// an Add, never mid-append.
type LocalStore struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	norms   []float32
	chunks  []Chunk
}

// NewLocalStore creates an empty local store. The dimension is fixed
// by the first Add.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// localSnapshot is the on-disk form of the vector file.
type localSnapshot struct {
	Dimension int
	Vectors   [][]float32
}

// Add appends chunks and their vectors. Prior entries are never
// re-embedded, removed, or re-ordered.
func (s *LocalStore) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %d (%s) has no embedding", i, c.ID)
		}
		if s.dim == 0 && len(s.vectors) == 0 {
			s.dim = len(c.Embedding)
		}
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(c.Embedding), s.dim)
		}
	}

	for _, c := range chunks {
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		s.vectors = append(s.vectors, vec)
		s.norms = append(s.norms, norm(vec))
		c.Embedding = nil // the vector slice is the single owner
		s.chunks = append(s.chunks, c)
	}
	return nil
}

// Search scores every chunk against the query vector and returns the
// top results by descending cosine similarity. Ties keep insertion
// order. Returns fewer than limit when the store is small.
func (s *LocalStore) Search(ctx context.Context, vector []float32, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dim)
	}

	qnorm := norm(vector)
	results := make([]ScoredChunk, len(s.vectors))
	for i, v := range s.vectors {
		results[i] = ScoredChunk{Chunk: s.chunks[i], Score: cosine(vector, v, qnorm, s.norms[i])}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}

// Count reports the number of indexed chunks.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Documents returns the distinct source documents in first-indexed order.
func (s *LocalStore) Documents(ctx context.Context) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var docs []DocumentInfo
	for _, c := range s.chunks {
		if seen[c.SourceFile] {
			continue
		}
		seen[c.SourceFile] = true
		docs = append(docs, DocumentInfo{Name: c.DocumentName, Filename: c.SourceFile})
	}
	return docs, nil
}

// Persist writes the store to dir: vectors.gob with the embedding
// matrix and chunks.json as the metadata side table. Both files are
// written to temp names and renamed, so a crash mid-write leaves the
// previous persisted state readable.
func (s *LocalStore) Persist(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	snap := localSnapshot{Dimension: s.dim, Vectors: s.vectors}
	if err := writeAtomic(filepath.Join(dir, vectorsFile), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(&snap)
	}); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, chunksFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(s.chunks)
	}); err != nil {
		return fmt.Errorf("persist chunk table: %w", err)
	}
	return nil
}

// OpenLocalStore loads a previously persisted store. Query results
// after a load are identical to those before the matching Persist.
func OpenLocalStore(dir string) (*LocalStore, error) {
	vf, err := os.Open(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	defer vf.Close()

	var snap localSnapshot
	if err := gob.NewDecoder(vf).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode vectors: %w", err)
	}

	cf, err := os.Open(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("open chunk table: %w", err)
	}
	defer cf.Close()

	var chunks []Chunk
	if err := json.NewDecoder(cf).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("decode chunk table: %w", err)
	}

	if len(chunks) != len(snap.Vectors) {
		return nil, fmt.Errorf("index corrupt: %d chunks but %d vectors", len(chunks), len(snap.Vectors))
	}

	s := &LocalStore{dim: snap.Dimension, vectors: snap.Vectors, chunks: chunks}
	s.norms = make([]float32, len(snap.Vectors))
	for i, v := range snap.Vectors {
		if len(v) != snap.Dimension {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), snap.Dimension)
		}
		s.norms[i] = norm(v)
	}
	return s, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

func cosine(a, b []float32, normA, normB float32) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot) / (normA * normB)
}
