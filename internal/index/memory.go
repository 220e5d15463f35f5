package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bull/pdfchat-server/internal/document"
)

// MemoryBackend builds immutable in-memory indexes. It is the default
// backend: one document per session, discarded with the process.
type MemoryBackend struct{}

// NewMemoryBackend creates the in-memory index backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Build copies segments and vectors into an immutable MemoryIndex.
// Vectors are L2-normalized once here so queries reduce to dot products.
func (b *MemoryBackend) Build(_ context.Context, segments []document.Segment, vectors [][]float32) (Index, error) {
	if len(segments) != len(vectors) {
		return nil, fmt.Errorf("%w: %d segments, %d vectors", ErrEmbedding, len(segments), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, ErrNoSegments
	}

	dim := len(vectors[0])
	idx := &MemoryIndex{
		dimension: dim,
		segments:  make([]document.Segment, len(segments)),
		vectors:   make([][]float32, len(vectors)),
	}
	copy(idx.segments, segments)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
		idx.vectors[i] = normalize(v)
	}
	return idx, nil
}

// MemoryIndex is a brute-force cosine similarity index over one document.
// It is immutable after Build, so concurrent reads need no locking.
type MemoryIndex struct {
	dimension int
	segments  []document.Segment // in document order
	vectors   [][]float32        // normalized, parallel to segments
}

// Len reports the number of indexed segments.
func (idx *MemoryIndex) Len() int {
	return len(idx.segments)
}

// Search scores every segment against the query vector and returns the top k.
// Ordering is score descending; equal scores keep document order (stable).
func (idx *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]ScoredSegment, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	query := normalize(vector)
	results := make([]ScoredSegment, len(idx.segments))
	for i := range idx.segments {
		results[i] = ScoredSegment{
			Segment: idx.segments[i],
			Score:   dot(idx.vectors[i], query),
		}
	}

	// Segments start in document order, so a stable sort on score alone
	// yields the position tie-break.
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns an L2-normalized copy. Zero vectors are returned as-is.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
