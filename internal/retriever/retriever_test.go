package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/policy-assistant/internal/index"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func seededStore(t *testing.T, n int) *index.LocalStore {
	t.Helper()
	s := index.NewLocalStore()
	chunks := make([]index.Chunk, n)
	for i := range chunks {
		chunks[i] = index.Chunk{
			ID:           string(rune('a' + i)),
			DocumentName: "Doc",
			SourceFile:   "doc.pdf",
			PageNumber:   i + 1,
			Text:         "chunk",
			Embedding:    []float32{float32(i + 1), 1},
		}
	}
	require.NoError(t, s.Add(context.Background(), chunks))
	return s
}

func TestRetrieve_CapsAtK(t *testing.T) {
	r := New(seededStore(t, 10), &stubEmbedder{vector: []float32{1, 0}}, 4)
	chunks, err := r.Retrieve(context.Background(), "how many sick leaves?")
	require.NoError(t, err)
	assert.Len(t, chunks, 4)
}

func TestRetrieve_FewerWhenIndexIsSmall(t *testing.T) {
	r := New(seededStore(t, 2), &stubEmbedder{vector: []float32{1, 0}}, 6)
	chunks, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestRetrieve_KeepsRankOrder(t *testing.T) {
	s := index.NewLocalStore()
	require.NoError(t, s.Add(context.Background(), []index.Chunk{
		{ID: "far", Text: "far", DocumentName: "D", SourceFile: "d.pdf", PageNumber: 1, Embedding: []float32{0, 1}},
		{ID: "near", Text: "near", DocumentName: "D", SourceFile: "d.pdf", PageNumber: 2, Embedding: []float32{1, 0}},
	}))

	r := New(s, &stubEmbedder{vector: []float32{1, 0}}, 2)
	chunks, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "near", chunks[0].ID)
	assert.Equal(t, "far", chunks[1].ID)
}

func TestRetrieve_EmbedderFailure(t *testing.T) {
	r := New(seededStore(t, 3), &stubEmbedder{err: errors.New("api down")}, 3)
	_, err := r.Retrieve(context.Background(), "question")
	assert.Error(t, err)
}

func TestNew_DefaultK(t *testing.T) {
	r := New(index.NewLocalStore(), &stubEmbedder{vector: []float32{1}}, 0)
	assert.Equal(t, DefaultK, r.K())
}
