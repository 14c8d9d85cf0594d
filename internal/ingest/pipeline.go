// Package ingest orchestrates turning PDF files into indexed chunks,
// for both bulk ingestion and incremental per-upload reindexing.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/pdf"
	"github.com/bull/policy-assistant/internal/splitter"
)

// Extractor yields a document's pages in order.
type Extractor interface {
	ExtractPages(path string) ([]pdf.Page, error)
}

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Persister flushes the store to durable storage. The local store
// implements it; remote backends that are durable on write pass nil.
type Persister interface {
	Persist(dir string) error
}

// IngestResult contains statistics about a bulk ingestion run.
type IngestResult struct {
	TotalDocs      int
	SuccessfulDocs int
	TotalChunks    int
	FailedDocs     []FailedDoc
	Duration       time.Duration
}

// FailedDoc records a document that failed to ingest.
type FailedDoc struct {
	Filename string
	Reason   string
}

// Pipeline wires extraction, chunking, embedding, and storage.
type Pipeline struct {
	extractor Extractor
	splitter  *splitter.Splitter
	embedder  Embedder
	store     index.Store
	persister Persister
	indexDir  string
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline. persister may be nil when
// the store needs no explicit flush.
func NewPipeline(
	extractor Extractor,
	split *splitter.Splitter,
	embedder Embedder,
	store index.Store,
	persister Persister,
	indexDir string,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		splitter:  split,
		embedder:  embedder,
		store:     store,
		persister: persister,
		indexDir:  indexDir,
		logger:    logger,
	}
}

// BulkIngest indexes every PDF in docsDir and persists the result.
// A missing or empty directory, or a corpus yielding zero chunks, is
// an operator error: it fails with ErrEmptyCorpus and is not
// recovered. Individual unreadable files are logged and skipped.
func (p *Pipeline) BulkIngest(ctx context.Context, docsDir string) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	entries, err := os.ReadDir(docsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read docs dir %s: %v", index.ErrEmptyCorpus, docsDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, e.Name())
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no PDF files in %s", index.ErrEmptyCorpus, docsDir)
	}
	result.TotalDocs = len(files)
	p.logger.Info("starting bulk ingest", "dir", docsDir, "files", len(files))

	for _, name := range files {
		n, err := p.processFile(ctx, filepath.Join(docsDir, name), name)
		if err != nil {
			p.logger.Warn("failed to ingest document", "file", name, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Filename: name, Reason: err.Error()})
			continue
		}
		result.SuccessfulDocs++
		result.TotalChunks += n
	}

	if result.TotalChunks == 0 {
		return nil, fmt.Errorf("%w: %d files yielded no chunks", index.ErrEmptyCorpus, len(files))
	}

	if err := p.flush(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	p.logger.Info("bulk ingest complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)
	return result, nil
}

// ReindexOne indexes a single uploaded file into the live store and
// persists. On any failure the error is returned for logging and the
// previously persisted index stays as it was.
func (p *Pipeline) ReindexOne(ctx context.Context, path, filename string) error {
	n, err := p.processFile(ctx, path, filename)
	if err != nil {
		return fmt.Errorf("reindex %s: %w", filename, err)
	}
	if err := p.flush(); err != nil {
		return fmt.Errorf("reindex %s: %w", filename, err)
	}
	p.logger.Info("reindexed document", "file", filename, "chunks", n)
	return nil
}

// processFile runs one document through extract, chunk, embed, add.
func (p *Pipeline) processFile(ctx context.Context, path, filename string) (int, error) {
	pages, err := p.extractor.ExtractPages(path)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("no extractable text")
	}

	docName := pdf.DisplayName(filename)
	chunks := p.splitter.Split(docName, filename, pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks after splitting")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedded %d of %d chunks", len(vectors), len(chunks))
	}

	records := make([]index.Chunk, len(chunks))
	for i, c := range chunks {
		records[i] = index.Chunk{
			ID:           uuid.New().String(),
			DocumentName: c.DocumentName,
			SourceFile:   c.SourceFile,
			PageNumber:   c.PageNumber,
			Text:         c.Text,
			Embedding:    vectors[i],
		}
	}

	if err := p.store.Add(ctx, records); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(records), nil
}

func (p *Pipeline) flush() error {
	if p.persister == nil {
		return nil
	}
	if err := p.persister.Persist(p.indexDir); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}
