package index

import "errors"

var (
	// ErrEmptyIndex indicates a query arrived before any successful ingestion.
	ErrEmptyIndex = errors.New("no document indexed yet")

	// ErrNoSegments indicates an index build was requested for an empty
	// segment sequence.
	ErrNoSegments = errors.New("no segments to index")

	// ErrEmbedding indicates the embedding provider failed or returned
	// malformed vectors during an index build.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrQdrantUnreachable indicates the Qdrant backend could not be reached.
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
)
