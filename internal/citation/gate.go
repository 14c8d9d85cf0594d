// Package citation verifies that an answer is actually evidenced by
// the chunks retrieved for it. The model is told to cite sources, but
// its self-reported citations are never trusted: the gate re-derives
// them by lexical overlap.
package citation

import (
	"strings"

	"github.com/bull/policy-assistant/internal/index"
)

// DefaultMinMatches is how many meaningful words of a chunk must
// appear in the answer before its source is cited. A coarse heuristic,
// kept overridable for tuning.
const DefaultMinMatches = 3

// minWordLength filters out short, low-signal tokens.
const minWordLength = 5

// stopWords are excluded from a chunk's meaningful word set. Words
// shorter than minWordLength never reach this check.
var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true,
	"against": true, "because": true, "before": true, "being": true,
	"below": true, "between": true, "could": true, "doing": true,
	"during": true, "every": true, "further": true, "having": true,
	"might": true, "other": true, "shall": true, "should": true,
	"since": true, "their": true, "there": true, "these": true,
	"those": true, "through": true, "under": true, "until": true,
	"where": true, "which": true, "while": true, "would": true,
}

// Source is a deduplicated (document, page) pair cited to the caller.
type Source struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
}

// Gate filters retrieved sources down to those the answer text
// actually draws on.
type Gate struct {
	minMatches int
}

// NewGate creates a Gate. A non-positive threshold selects
// DefaultMinMatches.
func NewGate(minMatches int) *Gate {
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}
	return &Gate{minMatches: minMatches}
}

// FilterSources returns the sources evidenced by the answer, in
// retrieval-rank order, deduplicated by (document, page). A chunk is
// accepted when at least minMatches of its meaningful words occur in
// the answer. If nothing passes but retrieval was non-empty, the
// top-ranked chunk's source is returned alone: an answer claimed from
// policy is never served citing nothing.
func (g *Gate) FilterSources(question, answer string, retrieved []index.Chunk) []Source {
	if len(retrieved) == 0 {
		return nil
	}

	lowerAnswer := strings.ToLower(answer)

	var sources []Source
	seen := make(map[Source]bool)
	for _, chunk := range retrieved {
		if countMatches(meaningfulWords(chunk.Text), lowerAnswer) < g.minMatches {
			continue
		}
		src := Source{Document: chunk.DocumentName, Page: chunk.PageNumber}
		if seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		top := retrieved[0]
		return []Source{{Document: top.DocumentName, Page: top.PageNumber}}
	}
	return sources
}

// meaningfulWords is the deduplicated set of lower-cased tokens in
// text, minus stop words and tokens shorter than minWordLength.
func meaningfulWords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	seen := make(map[string]bool, len(tokens))
	var words []string
	for _, tok := range tokens {
		if len(tok) < minWordLength || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		words = append(words, tok)
	}
	return words
}

// countMatches counts how many words occur as substrings of the
// lower-cased answer. Substring matching lets "leave" in a chunk
// match "leaves" in an answer.
func countMatches(words []string, lowerAnswer string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lowerAnswer, w) {
			n++
		}
	}
	return n
}
