package index

import (
	"context"
	"fmt"

	"github.com/bull/pdfchat-server/internal/document"
)

// Embedder turns texts into vectors. Implemented by embedding.Embedder;
// tests substitute fakes.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder embeds a document's segments and materializes a fresh Index.
// Each call produces a complete replacement index; callers install it with a
// single pointer swap so no query ever observes a half-built index.
type Builder struct {
	embedder Embedder
	backend  Backend
}

// NewBuilder creates a Builder over the given embedding provider and backend.
func NewBuilder(embedder Embedder, backend Backend) *Builder {
	return &Builder{embedder: embedder, backend: backend}
}

// Build embeds every segment (batched by the provider wrapper) and returns a
// fully-built Index. It fails with ErrNoSegments for an empty sequence and
// ErrEmbedding when the provider errors or returns malformed vectors.
func (b *Builder) Build(ctx context.Context, segments []document.Segment) (Index, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	vectors, err := b.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("%w: %d segments, %d vectors", ErrEmbedding, len(segments), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for segment %d", ErrEmbedding, i)
		}
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: inconsistent dimensions (%d vs %d)",
				ErrEmbedding, len(v), len(vectors[0]))
		}
	}

	return b.backend.Build(ctx, segments, vectors)
}
