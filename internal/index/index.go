// Package index builds and queries the per-document vector index.
package index

import (
	"context"

	"github.com/bull/pdfchat-server/internal/document"
)

// ScoredSegment is a retrieved segment with its similarity score.
type ScoredSegment struct {
	Segment document.Segment
	Score   float64
}

// Index serves nearest-neighbour queries over one document's segments.
// An Index is complete before it is handed to callers; replacing a document
// means building a new Index and swapping it in, never mutating an old one.
type Index interface {
	// Search returns the top k segments by cosine proximity, ordered by
	// score descending with ties broken by original document position.
	Search(ctx context.Context, vector []float32, k int) ([]ScoredSegment, error)

	// Len reports the number of indexed segments.
	Len() int
}

// Backend materializes an Index from segments and their vectors.
type Backend interface {
	Build(ctx context.Context, segments []document.Segment, vectors [][]float32) (Index, error)
}
