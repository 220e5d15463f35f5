// Package pipeline orchestrates the upload and query stages for one session.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/pdfchat-server/internal/document"
	"github.com/bull/pdfchat-server/internal/index"
	"github.com/bull/pdfchat-server/internal/session"
)

// Ingestor parses uploaded bytes into segments.
type Ingestor interface {
	Ingest(ctx context.Context, data []byte) ([]document.Segment, error)
}

// IndexBuilder builds a replacement index from segments.
type IndexBuilder interface {
	Build(ctx context.Context, segments []document.Segment) (index.Index, error)
}

// Answerer produces a grounded answer for one question.
type Answerer interface {
	Answer(ctx context.Context, question string, segments []document.Segment, turns []session.Turn) (string, error)
}

// UploadResult reports what an upload produced.
type UploadResult struct {
	Pages    int
	Segments int
	Duration time.Duration
}

// Pipeline connects the explicit synchronous stages: ingest → build → install
// at upload time, guard → retrieve → answer → append per query. Each stage's
// contract is independently testable.
type Pipeline struct {
	ingestor Ingestor
	builder  IndexBuilder
	embedder index.Embedder
	answerer Answerer
	topK     int
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a Pipeline. A non-positive topK defaults to 4; a non-positive
// timeout disables the per-operation deadline on provider calls.
func New(ingestor Ingestor, builder IndexBuilder, embedder index.Embedder, answerer Answerer, topK int, timeout time.Duration, logger *slog.Logger) *Pipeline {
	if topK <= 0 {
		topK = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ingestor: ingestor,
		builder:  builder,
		embedder: embedder,
		answerer: answerer,
		topK:     topK,
		timeout:  timeout,
		logger:   logger,
	}
}

// Upload ingests a PDF, builds a replacement index, and installs it into the
// session, discarding the previous index and history. Any failure leaves the
// session in its previous state.
func (p *Pipeline) Upload(ctx context.Context, sess *session.Session, data []byte) (*UploadResult, error) {
	start := time.Now()
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	segments, err := p.ingestor.Ingest(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	p.logger.Debug("ingested document", "segments", len(segments))

	idx, err := p.builder.Build(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	// The index is complete; installing it is a single swap.
	sess.Install(idx)

	result := &UploadResult{
		Pages:    countPages(segments),
		Segments: len(segments),
		Duration: time.Since(start),
	}
	p.logger.Info("document indexed",
		"pages", result.Pages,
		"segments", result.Segments,
		"duration", result.Duration,
	)
	return result, nil
}

// Ask answers one question against the session's current document. It fails
// with index.ErrEmptyIndex before touching either provider when no document
// has been ingested. The turn is appended only after a successful answer.
func (p *Pipeline) Ask(ctx context.Context, sess *session.Session, question string) (string, error) {
	idx := sess.Index()
	if idx == nil {
		return "", index.ErrEmptyIndex
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	retrieved, err := p.retrieve(ctx, idx, question)
	if err != nil {
		return "", err
	}

	answer, err := p.answerer.Answer(ctx, question, retrieved, sess.History())
	if err != nil {
		// The failed exchange is not recorded; history stays clean.
		return "", fmt.Errorf("answer: %w", err)
	}

	sess.Append(question, answer)
	p.logger.Debug("answered question", "retrieved", len(retrieved), "history", len(sess.History()))
	return answer, nil
}

// retrieve embeds the question and returns the top-k segments. Finding
// nothing close is not an error; the answerer decides what to do with an
// empty context.
func (p *Pipeline) retrieve(ctx context.Context, idx index.Index, question string) ([]document.Segment, error) {
	vectors, err := p.embedder.GenerateEmbeddings(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", index.ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", index.ErrEmbedding, len(vectors))
	}

	scored, err := idx.Search(ctx, vectors[0], p.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	segments := make([]document.Segment, len(scored))
	for i, s := range scored {
		segments[i] = s.Segment
	}
	return segments, nil
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

func countPages(segments []document.Segment) int {
	pages := map[int]struct{}{}
	for _, seg := range segments {
		pages[seg.Page] = struct{}{}
	}
	return len(pages)
}
