package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// pageSeparator joins page texts in the extracted document. Chunk rune
// offsets are computed against the joined text, so the separator length
// is accounted for in page spans.
const pageSeparator = "\n\n"

// PDFExtractor extracts text from PDF documents page by page, recording the
// rune span each page occupies in the joined text.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// Extract parses the PDF and returns the joined page text with per-page
// rune spans. Pages that yield no text still appear as empty spans so page
// numbering stays aligned with the source document.
func (e *PDFExtractor) Extract(ctx context.Context, filename string, data []byte) (*ai.ExtractedDocument, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", core.ErrExtractionFailed, filename, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrExtractionFailed, filename, err)
	}

	var b strings.Builder
	pages := make([]core.PageSpan, 0, numPages)
	offset := 0

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", core.ErrExtractionFailed, filename, i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", core.ErrExtractionFailed, filename, i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", core.ErrExtractionFailed, filename, i, err)
		}
		text = strings.TrimSpace(text)

		if i > 1 {
			b.WriteString(pageSeparator)
			offset += len(pageSeparator)
		}

		runes := utf8.RuneCountInString(text)
		pages = append(pages, core.PageSpan{
			Number: i,
			Start:  offset,
			End:    offset + runes,
		})
		b.WriteString(text)
		offset += runes
	}

	e.logger.Debug("extracted pdf", "filename", filename, "pages", numPages, "runes", offset)

	return &ai.ExtractedDocument{Text: b.String(), Pages: pages}, nil
}

// PDFPageCount reads just enough of the PDF to count its pages. Used to
// reject oversized documents before any pipeline work is queued.
func PDFPageCount(data []byte) (int, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
	}
	return reader.GetNumPages()
}
