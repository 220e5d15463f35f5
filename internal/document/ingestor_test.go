package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor is a test double for PageExtractor.
type fakeExtractor struct {
	pages []PageText
	err   error
	calls int
}

func (f *fakeExtractor) ExtractPages(_ context.Context, _ string) ([]PageText, error) {
	f.calls++
	return f.pages, f.err
}

// pdfBytes fabricates an upload that passes the magic-header sniff. The fake
// extractor ignores the file contents.
func pdfBytes() []byte {
	return []byte("%PDF-1.7\nfake body")
}

func TestIngest_OneSegmentPerPage(t *testing.T) {
	extractor := &fakeExtractor{pages: []PageText{
		{Number: 1, Text: "First page text."},
		{Number: 2, Text: "Second page text."},
		{Number: 3, Text: "Third page text."},
	}}
	ingestor := NewIngestor(extractor, 0)

	segments, err := ingestor.Ingest(context.Background(), pdfBytes())
	require.NoError(t, err)
	require.Len(t, segments, 3)

	seenPages := map[int]bool{}
	for i, seg := range segments {
		assert.Equal(t, i, seg.Position)
		assert.NotEmpty(t, seg.ID)
		assert.GreaterOrEqual(t, seg.Page, 1)
		assert.LessOrEqual(t, seg.Page, 3)
		seenPages[seg.Page] = true
	}
	// At least one segment per text-bearing page.
	assert.Len(t, seenPages, 3)
}

func TestIngest_SplitsLongPages(t *testing.T) {
	long := strings.Repeat("word ", 200) // ~1000 chars, one paragraph
	extractor := &fakeExtractor{pages: []PageText{
		{Number: 1, Text: long + "\n\n" + long + "\n\n" + long},
	}}
	ingestor := NewIngestor(extractor, 1200)

	segments, err := ingestor.Ingest(context.Background(), pdfBytes())
	require.NoError(t, err)
	assert.Greater(t, len(segments), 1)
	for _, seg := range segments {
		assert.Equal(t, 1, seg.Page)
		assert.LessOrEqual(t, len(seg.Text), 1200)
	}
}

func TestIngest_MergesSmallParagraphs(t *testing.T) {
	extractor := &fakeExtractor{pages: []PageText{
		{Number: 1, Text: "Alpha.\n\nBeta.\n\nGamma."},
	}}
	ingestor := NewIngestor(extractor, 1200)

	segments, err := ingestor.Ingest(context.Background(), pdfBytes())
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Contains(t, segments[0].Text, "Alpha.")
	assert.Contains(t, segments[0].Text, "Gamma.")
}

func TestIngest_NotPDF(t *testing.T) {
	extractor := &fakeExtractor{}
	ingestor := NewIngestor(extractor, 0)

	_, err := ingestor.Ingest(context.Background(), []byte("hello world"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.ErrorIs(t, err, ErrIngest)
	// The extractor must not run for non-PDF bytes.
	assert.Zero(t, extractor.calls)
}

func TestIngest_ParseFailure(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("encrypted document")}
	ingestor := NewIngestor(extractor, 0)

	_, err := ingestor.Ingest(context.Background(), pdfBytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPDF)
}

func TestIngest_NoPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageText
	}{
		{"zero pages", nil},
		{"only whitespace pages", []PageText{{Number: 1, Text: "  \n\n  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingestor := NewIngestor(&fakeExtractor{pages: tt.pages}, 0)
			_, err := ingestor.Ingest(context.Background(), pdfBytes())
			assert.ErrorIs(t, err, ErrNoPages)
		})
	}
}

func TestIngest_ContextCanceled(t *testing.T) {
	extractor := &fakeExtractor{err: context.Canceled}
	ingestor := NewIngestor(extractor, 0)

	_, err := ingestor.Ingest(context.Background(), pdfBytes())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	// Cancellation is not a malformed document.
	assert.NotErrorIs(t, err, ErrNotPDF)
}

func TestPackParagraphs_Oversized(t *testing.T) {
	text := strings.Repeat("x", 2500)
	parts := packParagraphs(text, 1000)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 1000)
	}
}

func TestPackParagraphs_OversizedMultibyte(t *testing.T) {
	// Hangul runes are three bytes each; a byte-offset split would land
	// mid-rune and corrupt the segment text.
	text := strings.Repeat("파리는 프랑스의 수도입니다 ", 200)
	parts := packParagraphs(text, 1200)
	require.Greater(t, len(parts), 1)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p))
		assert.LessOrEqual(t, len(p), 1200)
	}
}
