// Package document turns uploaded PDF bytes into ordered, page-tagged text segments.
package document

// Segment is a contiguous span of extracted text with page provenance.
// Segments are immutable once created and ordered by Position.
type Segment struct {
	ID       string // UUID
	Page     int    // 1-based source page number
	Position int    // document order (0, 1, 2...)
	Text     string
}

// PageText is the raw text recovered from one PDF page.
type PageText struct {
	Number int // 1-based page number
	Text   string
}
