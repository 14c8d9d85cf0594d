package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/policy-assistant/internal/index"
)

func chunk(doc string, page int, text string) index.Chunk {
	return index.Chunk{DocumentName: doc, SourceFile: doc + ".pdf", PageNumber: page, Text: text}
}

func TestFilterSources_AcceptsEvidencedChunk(t *testing.T) {
	g := NewGate(0)
	retrieved := []index.Chunk{
		chunk("Leave Policy", 2, "Employees are entitled to twelve sick leaves every calendar year."),
	}
	answer := "Employees are entitled to twelve sick leaves per calendar year."

	sources := g.FilterSources("how many sick leaves?", answer, retrieved)
	require.Len(t, sources, 1)
	assert.Equal(t, Source{Document: "Leave Policy", Page: 2}, sources[0])
}

func TestFilterSources_RejectsUnrelatedChunk(t *testing.T) {
	g := NewGate(0)
	retrieved := []index.Chunk{
		chunk("Leave Policy", 2, "Employees are entitled to twelve sick leaves every calendar year."),
		chunk("Travel Policy", 9, "Reimbursement requires original receipts submitted within thirty days."),
	}
	answer := "Employees are entitled to twelve sick leaves per calendar year."

	sources := g.FilterSources("q", answer, retrieved)
	require.Len(t, sources, 1)
	assert.Equal(t, "Leave Policy", sources[0].Document,
		"chunk sharing fewer than 3 meaningful words must not be cited when another source passed")
}

func TestFilterSources_FallbackToTopRanked(t *testing.T) {
	g := NewGate(0)
	retrieved := []index.Chunk{
		chunk("Benefits Policy", 4, "Dental coverage includes biannual checkups for dependents."),
		chunk("Travel Policy", 9, "Reimbursement requires original receipts submitted within thirty days."),
	}
	// Answer shares nothing with either chunk.
	sources := g.FilterSources("q", "Yes.", retrieved)

	require.Len(t, sources, 1)
	assert.Equal(t, Source{Document: "Benefits Policy", Page: 4}, sources[0],
		"zero accepted sources with non-empty retrieval falls back to the top-ranked chunk")
}

func TestFilterSources_EmptyRetrieval(t *testing.T) {
	g := NewGate(0)
	assert.Nil(t, g.FilterSources("q", "any answer", nil))
}

func TestFilterSources_DeduplicatesByDocumentAndPage(t *testing.T) {
	g := NewGate(0)
	retrieved := []index.Chunk{
		chunk("Leave Policy", 2, "Employees receive twelve sick leaves every calendar year."),
		chunk("Leave Policy", 2, "Sick leaves reset every calendar year for employees."),
		chunk("Leave Policy", 3, "Unused leaves cannot be carried into the following calendar year."),
	}
	answer := "Employees receive twelve sick leaves every calendar year; unused leaves cannot be carried over into the following year."

	sources := g.FilterSources("q", answer, retrieved)
	require.Len(t, sources, 2)
	assert.Equal(t, Source{Document: "Leave Policy", Page: 2}, sources[0])
	assert.Equal(t, Source{Document: "Leave Policy", Page: 3}, sources[1])
}

func TestFilterSources_PreservesRetrievalOrder(t *testing.T) {
	g := NewGate(0)
	retrieved := []index.Chunk{
		chunk("Employee Handbook", 7, "Working hours start at nine and finish at seventeen daily."),
		chunk("Leave Policy", 2, "Employees receive twelve sick leaves every calendar year."),
	}
	answer := "Working hours start at nine and finish at seventeen daily; employees receive twelve sick leaves every calendar year."

	sources := g.FilterSources("q", answer, retrieved)
	require.Len(t, sources, 2)
	assert.Equal(t, "Employee Handbook", sources[0].Document)
	assert.Equal(t, "Leave Policy", sources[1].Document)
}

func TestFilterSources_ThresholdIsConfigurable(t *testing.T) {
	retrieved := []index.Chunk{
		chunk("Travel Policy", 9, "Reimbursement requires original receipts submitted promptly."),
		chunk("Leave Policy", 2, "Employees receive twelve sick leaves yearly."),
	}
	// Exactly two meaningful words ("employees", "twelve") of the
	// second chunk overlap the answer; none of the first.
	answer := "Employees get twelve days."

	strict := NewGate(3)
	strictSources := strict.FilterSources("q", answer, retrieved)
	require.Len(t, strictSources, 1)
	assert.Equal(t, "Travel Policy", strictSources[0].Document,
		"nothing passes at 3, so the fallback cites the top-ranked chunk")

	loose := NewGate(2)
	looseSources := loose.FilterSources("q", answer, retrieved)
	require.Len(t, looseSources, 1)
	assert.Equal(t, "Leave Policy", looseSources[0].Document)
}

func TestMeaningfulWords(t *testing.T) {
	words := meaningfulWords("The employees, WHILE on leave, receive benefits; the dog ran.")
	// "while" is a stop word; "the", "on", "dog", "ran" are too short;
	// "leave" qualifies at exactly five characters.
	assert.ElementsMatch(t, []string{"employees", "leave", "receive", "benefits"}, words)
}

func TestMeaningfulWords_Deduplicates(t *testing.T) {
	words := meaningfulWords("leaves leaves LEAVES policy Policy")
	assert.ElementsMatch(t, []string{"leaves", "policy"}, words)
}
