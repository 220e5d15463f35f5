package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// ErrIngest is the family error for all ingestion failures.
	ErrIngest = errors.New("document ingest failed")

	// ErrNotPDF indicates the uploaded bytes are not a parseable PDF.
	ErrNotPDF = fmt.Errorf("%w: not a parseable PDF", ErrIngest)

	// ErrNoPages indicates no text-bearing pages were recovered.
	ErrNoPages = fmt.Errorf("%w: no pages recovered", ErrIngest)
)

// pdfMagic is the header every PDF starts with.
var pdfMagic = []byte("%PDF-")

// PageExtractor recovers per-page plain text from a PDF file on disk.
// The production implementation parses with ledongthuc/pdf; tests substitute
// a fake so no real PDF fixture is needed.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]PageText, error)
}

// DefaultMaxSegmentChars bounds segment size when none is configured.
const DefaultMaxSegmentChars = 1200

// Ingestor parses uploaded PDF bytes into ordered Segments.
type Ingestor struct {
	extractor       PageExtractor
	maxSegmentChars int
}

// NewIngestor creates an Ingestor with the given extractor and segment size
// limit. A non-positive limit falls back to DefaultMaxSegmentChars.
func NewIngestor(extractor PageExtractor, maxSegmentChars int) *Ingestor {
	if maxSegmentChars <= 0 {
		maxSegmentChars = DefaultMaxSegmentChars
	}
	return &Ingestor{
		extractor:       extractor,
		maxSegmentChars: maxSegmentChars,
	}
}

// Ingest writes the uploaded bytes to a temporary file, extracts text
// page-by-page, and returns ordered Segments with page numbers attached.
// The temporary file is removed even when parsing fails.
func (g *Ingestor) Ingest(ctx context.Context, data []byte) ([]Segment, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, ErrNotPDF
	}

	tmp, err := os.CreateTemp("", "pdfchat-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %v", ErrIngest, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write temp file: %v", ErrIngest, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %v", ErrIngest, err)
	}

	pages, err := g.extractor.ExtractPages(ctx, tmp.Name())
	if err != nil {
		// Cancellation is not a parse failure; surface it as-is.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	segments := g.segmentPages(pages)
	if len(segments) == 0 {
		return nil, ErrNoPages
	}
	return segments, nil
}

// segmentPages packs each page's paragraphs into segments no larger than the
// configured limit, producing at least one segment per text-bearing page.
func (g *Ingestor) segmentPages(pages []PageText) []Segment {
	var segments []Segment
	for _, page := range pages {
		for _, text := range packParagraphs(page.Text, g.maxSegmentChars) {
			segments = append(segments, Segment{
				ID:       uuid.New().String(),
				Page:     page.Number,
				Position: len(segments),
				Text:     text,
			})
		}
	}
	return segments
}

// packParagraphs splits text on blank lines and greedily merges consecutive
// paragraphs until the size limit, so small paragraphs retain surrounding
// context. Oversized paragraphs are split at the limit.
func packParagraphs(text string, maxChars int) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, para := range splitParagraphs(text) {
		if current.Len() > 0 && current.Len()+len(para)+2 > maxChars {
			flush()
		}
		if len(para) > maxChars {
			flush()
			for len(para) > maxChars {
				cut := runeBoundary(para, maxChars)
				out = append(out, strings.TrimSpace(para[:cut]))
				para = para[cut:]
			}
		}
		if strings.TrimSpace(para) == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return out
}

// runeBoundary walks the cut point back to the nearest rune start so an
// oversized paragraph is never split mid-rune.
func runeBoundary(s string, cut int) int {
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		// Limit smaller than one rune; take the whole rune anyway.
		_, size := utf8.DecodeRuneInString(s)
		return size
	}
	return cut
}

// splitParagraphs breaks page text into paragraphs at blank lines.
func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(normalized, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}
