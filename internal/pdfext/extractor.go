package pdfext

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"pdfchat/internal/domain"
)

// Extractor reads PDF files and extracts per-page plain text.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor { return &Extractor{} }

// Extract opens the PDF at path and returns its pages in order. Pages
// whose text cannot be decoded are skipped rather than failing the
// whole document.
func (e *Extractor) Extract(path string) (domain.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	doc := domain.Document{Path: path}
	totalPages := r.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		doc.Pages = append(doc.Pages, domain.Page{Number: pageNum, Text: text})
	}
	return doc, nil
}
