package narration

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted plain text of one document page.
type PageText struct {
	Number int
	Text   string
}

// Extractor turns a stored document into per-page plain text.
type Extractor interface {
	ExtractPages(path string) ([]PageText, error)
}

// PDFExtractor extracts text from PDF documents. For each page it first
// attempts direct plain-text extraction; when that comes back blank (common
// with unusual font encodings) it falls back to concatenating the page's
// raw text blocks.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages reads every page of the PDF at path.
func (e *PDFExtractor) ExtractPages(path string) (pages []PageText, err error) {
	// The underlying parser panics on some malformed documents; surface
	// those as errors instead of taking the request down.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf extraction failed: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]PageText, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}

		if strings.TrimSpace(text) == "" {
			text = blockText(page)
		}

		pages = append(pages, PageText{Number: i, Text: text})
	}
	return pages, nil
}

// blockText is the fallback extraction mode: it walks the page's positioned
// text fragments and joins them with spaces.
func blockText(page pdf.Page) string {
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, fragment := range content.Text {
		if fragment.S == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fragment.S)
	}
	return sb.String()
}
