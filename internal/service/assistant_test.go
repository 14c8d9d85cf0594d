package service

import (
	"context"
	"errors"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/policy-assistant/internal/answer"
	"github.com/bull/policy-assistant/internal/citation"
	"github.com/bull/policy-assistant/internal/index"
	"github.com/bull/policy-assistant/internal/retriever"
)

type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, 8)
		h := fnv.New32a()
		h.Write([]byte(t))
		sum := h.Sum32()
		for d := range vec {
			vec[d] = float32((sum>>(d*4))&0xF) + 1
		}
		out[i] = vec
	}
	return out, nil
}

type stubGenerator struct {
	reply  string
	err    error
	called bool
}

func (s *stubGenerator) Answer(ctx context.Context, question string, chunks []index.Chunk) (string, error) {
	s.called = true
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func seededAssistant(t *testing.T, gen Generator) *Assistant {
	t.Helper()
	ctx := context.Background()
	store := index.NewLocalStore()

	texts := []string{
		"Employees are entitled to 12 sick leaves per year.",
		"Annual leave accrues at two days per month of service.",
		"Working hours are 9am to 5pm, Monday through Friday.",
	}
	vecs, err := hashEmbedder{}.Embed(ctx, texts)
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, []index.Chunk{
		{ID: "1", DocumentName: "Leave Policy", SourceFile: "leave_policy.pdf", PageNumber: 2, Text: texts[0], Embedding: vecs[0]},
		{ID: "2", DocumentName: "Leave Policy", SourceFile: "leave_policy.pdf", PageNumber: 1, Text: texts[1], Embedding: vecs[1]},
		{ID: "3", DocumentName: "Employee Handbook", SourceFile: "employee_handbook.pdf", PageNumber: 7, Text: texts[2], Embedding: vecs[2]},
	}))

	retr := retriever.New(store, hashEmbedder{}, 3)
	return NewAssistant(store, retr, gen, citation.NewGate(0), nil)
}

func TestAsk_GroundedAnswerWithSources(t *testing.T) {
	gen := &stubGenerator{reply: "Employees are entitled to 12 sick leaves per year (Leave Policy | Page 2)."}
	a := seededAssistant(t, gen)

	got := a.Ask(context.Background(), "How many sick leaves am I entitled to?")
	assert.Equal(t, OutcomeAnswered, got.Outcome)
	assert.Contains(t, got.Text, "12 sick leaves")
	assert.Contains(t, got.Sources, citation.Source{Document: "Leave Policy", Page: 2})
}

func TestAsk_UnrelatedQuestionReturnsSentinel(t *testing.T) {
	// Retrieval still returns nearest chunks, but the model finds no
	// evidence and replies with the sentinel.
	gen := &stubGenerator{reply: answer.Sentinel}
	a := seededAssistant(t, gen)

	got := a.Ask(context.Background(), "What is the capital of France?")
	assert.Equal(t, OutcomeNotFound, got.Outcome)
	assert.Equal(t, answer.Sentinel, got.Text)
	assert.Empty(t, got.Sources)
}

func TestAsk_EmptyIndexShortCircuits(t *testing.T) {
	gen := &stubGenerator{reply: "should never be used"}
	store := index.NewLocalStore()
	retr := retriever.New(store, hashEmbedder{}, 3)
	a := NewAssistant(store, retr, gen, citation.NewGate(0), nil)

	got := a.Ask(context.Background(), "anything")
	assert.Equal(t, OutcomeNotFound, got.Outcome)
	assert.Equal(t, answer.Sentinel, got.Text)
	assert.Empty(t, got.Sources)
	assert.False(t, gen.called, "generator must not run without context chunks")
}

func TestAsk_GenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	a := seededAssistant(t, gen)

	got := a.Ask(context.Background(), "How many sick leaves am I entitled to?")
	assert.Equal(t, OutcomeGenerationFailed, got.Outcome)
	assert.Equal(t, answer.Sentinel, got.Text)
	assert.Empty(t, got.Sources)
}

func TestReload_SwapsRetriever(t *testing.T) {
	gen := &stubGenerator{reply: answer.Sentinel}
	a := seededAssistant(t, gen)

	// A retriever over an empty store makes every question short-circuit.
	empty := index.NewLocalStore()
	a.Reload(retriever.New(empty, hashEmbedder{}, 3))

	gen.called = false
	got := a.Ask(context.Background(), "How many sick leaves am I entitled to?")
	assert.Equal(t, OutcomeNotFound, got.Outcome)
	assert.False(t, gen.called)
}

func TestListDocuments(t *testing.T) {
	a := seededAssistant(t, &stubGenerator{})
	docs, err := a.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Leave Policy", docs[0].Name)
	assert.Equal(t, "Employee Handbook", docs[1].Name)
}
