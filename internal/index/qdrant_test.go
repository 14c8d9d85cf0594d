//go:build integration

package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

// setupTestStore connects to a local Qdrant and prepares an empty test
// collection. Skips the test if Qdrant is not running.
func setupTestStore(t *testing.T) *QdrantStore {
	store, err := NewQdrantStore("localhost", 6334, "policy_chunks_test", testDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	require.NoError(t, store.EnsureCollection(context.Background()))
	require.NoError(t, store.ClearCollection(context.Background()))
	return store
}

func testVector(seed float32) []float32 {
	v := make([]float32, testDimension)
	for i := range v {
		v[i] = seed + float32(i)
	}
	return v
}

func TestQdrantChunkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	chunk := Chunk{
		ID:           uuid.New().String(),
		DocumentName: "Leave Policy",
		SourceFile:   "leave_policy.pdf",
		PageNumber:   2,
		Text:         "Employees are entitled to 12 sick leaves per year.",
		Embedding:    testVector(1),
	}
	require.NoError(t, store.Add(ctx, []Chunk{chunk}))

	results, err := store.Search(ctx, testVector(1), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0].Chunk
	assert.Equal(t, chunk.ID, got.ID)
	assert.Equal(t, chunk.DocumentName, got.DocumentName)
	assert.Equal(t, chunk.SourceFile, got.SourceFile)
	assert.Equal(t, chunk.PageNumber, got.PageNumber)
	assert.Equal(t, chunk.Text, got.Text)
}

func TestQdrantCountAndDocuments(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	chunks := []Chunk{
		{ID: uuid.New().String(), DocumentName: "Leave Policy", SourceFile: "leave_policy.pdf", PageNumber: 1, Text: "a", Embedding: testVector(1)},
		{ID: uuid.New().String(), DocumentName: "Leave Policy", SourceFile: "leave_policy.pdf", PageNumber: 2, Text: "b", Embedding: testVector(2)},
		{ID: uuid.New().String(), DocumentName: "Employee Handbook", SourceFile: "employee_handbook.pdf", PageNumber: 1, Text: "c", Embedding: testVector(3)},
	}
	require.NoError(t, store.Add(ctx, chunks))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	docs, err := store.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	files := []string{docs[0].Filename, docs[1].Filename}
	assert.ElementsMatch(t, []string{"leave_policy.pdf", "employee_handbook.pdf"}, files)
}

func TestQdrantRejectsDimensionMismatch(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	err := store.Add(context.Background(), []Chunk{{
		ID:        uuid.New().String(),
		Text:      "wrong size",
		Embedding: []float32{1, 2, 3},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
