package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/pdfchat-server/internal/document"
)

// fakeEmbedder returns canned vectors and counts invocations.
type fakeEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) GenerateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func TestBuilder_Build(t *testing.T) {
	embedder := &fakeEmbedder{}
	builder := NewBuilder(embedder, NewMemoryBackend())

	idx, err := builder.Build(context.Background(), []document.Segment{
		seg(0, 1, "a"), seg(1, 2, "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 1, embedder.calls)
}

func TestBuilder_EmptySegments(t *testing.T) {
	embedder := &fakeEmbedder{}
	builder := NewBuilder(embedder, NewMemoryBackend())

	_, err := builder.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSegments)
	// The provider must not be called for an empty sequence.
	assert.Zero(t, embedder.calls)
}

func TestBuilder_ProviderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("connection refused")}
	builder := NewBuilder(embedder, NewMemoryBackend())

	_, err := builder.Build(context.Background(), []document.Segment{seg(0, 1, "a")})
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestBuilder_MalformedVectors(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
	}{
		{"wrong count", [][]float32{{1, 0}}},
		{"empty vector", [][]float32{{}, {1, 0}}},
		{"inconsistent dimensions", [][]float32{{1, 0}, {1, 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewBuilder(&fakeEmbedder{vectors: tt.vectors}, NewMemoryBackend())
			_, err := builder.Build(context.Background(), []document.Segment{
				seg(0, 1, "a"), seg(1, 1, "b"),
			})
			assert.ErrorIs(t, err, ErrEmbedding)
		})
	}
}
