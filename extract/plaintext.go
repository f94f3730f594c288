package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
)

// PlainTextExtractor handles formats that are already text. The whole file
// is treated as a single page.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates an extractor for .txt and .md files.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract validates the bytes as UTF-8 and returns them as one page.
func (e *PlainTextExtractor) Extract(_ context.Context, filename string, data []byte) (*ai.ExtractedDocument, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", core.ErrExtractionFailed, filename)
	}

	text := strings.TrimSpace(string(data))
	return &ai.ExtractedDocument{
		Text: text,
		Pages: []core.PageSpan{
			{Number: 1, Start: 0, End: utf8.RuneCountInString(text)},
		},
	}, nil
}
