package document

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts per-page plain text using ledongthuc/pdf.
type PDFExtractor struct{}

// NewPDFExtractor creates the production PageExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages opens the PDF at path and returns the plain text of each page
// in order. Pages whose text cannot be decoded are skipped; open failures
// (corrupted or encrypted files) are returned as errors.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) (pages []PageText, err error) {
	// The pdf package panics on some malformed inputs instead of returning
	// an error; recover so a bad upload cannot take down the process.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}

	return pages, nil
}
