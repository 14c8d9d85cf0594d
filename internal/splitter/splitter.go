// Package splitter cuts extracted document text into overlapping chunks
// sized for embedding and retrieval.
package splitter

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bull/policy-assistant/internal/pdf"
)

const (
	// DefaultChunkSize is the target chunk length in bytes.
	DefaultChunkSize = 1500

	// DefaultOverlap is how many trailing bytes of a chunk are repeated
	// at the start of the next one, so facts straddling a cut remain
	// intact in at least one chunk.
	DefaultOverlap = 300
)

// separators in priority order: paragraph break, line break, sentence
// end, word boundary. The splitter cuts at the highest-priority
// separator that keeps the chunk within size.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk is a provenance-tagged slice of document text.
type Chunk struct {
	Index        int    // Position in document (0, 1, 2...)
	Text         string
	DocumentName string // Human-friendly name, e.g. "Leave Policy"
	SourceFile   string // Filename the chunk came from
	PageNumber   int    // Page holding the chunk's first character
}

// Splitter splits page-tagged text into overlapping fixed-size chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive arguments fall back to
// the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 4
		}
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks the pages of one document, propagating provenance to
// every chunk. A chunk spanning a page break carries the page number
// of its first character. Whitespace-only chunks are dropped.
func (s *Splitter) Split(docName, sourceFile string, pages []pdf.Page) []Chunk {
	if len(pages) == 0 {
		return nil
	}

	// Concatenate pages, remembering where each page starts so chunk
	// offsets can be mapped back to page numbers.
	var b strings.Builder
	starts := make([]int, len(pages))
	numbers := make([]int, len(pages))
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		starts[i] = b.Len()
		numbers[i] = p.Number
		b.WriteString(p.Text)
	}
	text := b.String()

	var chunks []Chunk
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			s.emit(&chunks, text[start:], docName, sourceFile, pageAt(starts, numbers, start))
			break
		}

		cut := s.findCut(text, start, end)
		s.emit(&chunks, text[start:cut], docName, sourceFile, pageAt(starts, numbers, start))

		// The overlap step is byte arithmetic; advance to the next rune
		// boundary so a chunk never starts inside a multi-byte rune.
		next := cut - s.overlap
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut picks the cut position for a chunk starting at start with a
// hard limit of end. It prefers the last occurrence of the highest-
// priority separator inside the window and falls back to a raw cut at
// the size limit (aligned to a rune boundary).
func (s *Splitter) findCut(text string, start, end int) int {
	window := text[start:end]
	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + idx + len(sep)
		}
	}
	cut := end
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == start {
		cut = end
	}
	return cut
}

func (s *Splitter) emit(chunks *[]Chunk, text, docName, sourceFile string, page int) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	*chunks = append(*chunks, Chunk{
		Index:        len(*chunks),
		Text:         trimmed,
		DocumentName: docName,
		SourceFile:   sourceFile,
		PageNumber:   page,
	})
}

// pageAt returns the page number owning the given offset into the
// concatenated text.
func pageAt(starts, numbers []int, offset int) int {
	i := sort.SearchInts(starts, offset+1) - 1
	if i < 0 {
		i = 0
	}
	return numbers[i]
}
