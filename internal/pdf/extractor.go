// Package pdf extracts page text from PDF policy documents.
package pdf

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is one page of an extracted document. Page numbers are 1-indexed.
type Page struct {
	Number int
	Text   string
}

// Extractor converts a PDF file into an ordered sequence of pages.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a PDF extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractPages reads a PDF and returns its pages in order.
// Pages that fail text extraction or contain no text are skipped;
// a document where every page fails yields an empty slice, not an error.
func (e *Extractor) ExtractPages(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []Page
	for num := 1; num <= reader.NumPage(); num++ {
		p := reader.Page(num)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("page text extraction failed", "path", path, "page", num, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: num, Text: text})
	}
	return pages, nil
}

// DisplayName derives a human-friendly document name from a filename.
// "leave_policy-2024.pdf" becomes "Leave Policy 2024".
func DisplayName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}
