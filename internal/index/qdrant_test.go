//go:build integration

package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdfchat-server/internal/document"
)

// setupQdrant connects to a local Qdrant instance, skipping when unavailable.
func setupQdrant(t *testing.T) *QdrantBackend {
	backend, err := NewQdrantBackend("localhost", 6334)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func qdrantSeg(position, page int, text string) document.Segment {
	return document.Segment{
		ID:       uuid.New().String(),
		Page:     page,
		Position: position,
		Text:     text,
	}
}

func TestQdrantBackend_BuildAndSearch(t *testing.T) {
	backend := setupQdrant(t)
	ctx := context.Background()

	segments := []document.Segment{
		qdrantSeg(0, 1, "the capital of france"),
		qdrantSeg(1, 2, "cooking with butter"),
	}
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	}

	idx, err := backend.Build(ctx, segments, vectors)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	results, err := idx.Search(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the capital of france", results[0].Segment.Text)
	assert.Equal(t, 1, results[0].Segment.Page)
	assert.Equal(t, 0, results[0].Segment.Position)
}

func TestQdrantBackend_RebuildReplacesPreviousGeneration(t *testing.T) {
	backend := setupQdrant(t)
	ctx := context.Background()

	first, err := backend.Build(ctx,
		[]document.Segment{qdrantSeg(0, 1, "old document")},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	second, err := backend.Build(ctx,
		[]document.Segment{qdrantSeg(0, 1, "new document")},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	results, err := second.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new document", results[0].Segment.Text)

	// The first generation's collection is gone.
	_, err = first.Search(ctx, []float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestQdrantBackend_RejectsEmptyBuild(t *testing.T) {
	backend := setupQdrant(t)

	_, err := backend.Build(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestQdrantBackend_RetireOutlivesBuildContext(t *testing.T) {
	backend := setupQdrant(t)

	buildCtx, cancel := context.WithCancel(context.Background())
	first, err := backend.Build(buildCtx,
		[]document.Segment{qdrantSeg(0, 1, "stale generation")},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	// The caller's context can expire before a slow build retires the old
	// generation; retirement must not depend on it.
	cancel()
	backend.retire(first.(*QdrantIndex).collection)

	_, err = first.Search(context.Background(), []float32{1, 0}, 1)
	assert.Error(t, err)
}

func TestQdrantBackend_DimensionValidation(t *testing.T) {
	backend := setupQdrant(t)
	ctx := context.Background()

	_, err := backend.Build(ctx,
		[]document.Segment{qdrantSeg(0, 1, "a"), qdrantSeg(1, 1, "b")},
		[][]float32{{1, 0}, {1, 0, 0}},
	)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
