package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, uses default behavior: the raw bytes are treated as UTF-8
	// text with form feeds as page breaks.
	ExtractFunc func(ctx context.Context, filename string, data []byte) (*ai.ExtractedDocument, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract treats the payload as UTF-8 text, splitting pages on form feed.
func (m *MockExtractor) Extract(ctx context.Context, filename string, data []byte) (*ai.ExtractedDocument, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, filename, data)
	}

	raw := strings.Split(string(data), "\f")
	var (
		b      strings.Builder
		pages  []core.PageSpan
		offset int
	)
	for i, page := range raw {
		if i > 0 {
			b.WriteString("\n\n")
			offset += 2
		}
		runes := len([]rune(page))
		pages = append(pages, core.PageSpan{Number: i + 1, Start: offset, End: offset + runes})
		b.WriteString(page)
		offset += runes
	}

	return &ai.ExtractedDocument{Text: b.String(), Pages: pages}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ExtractFunc = nil
}
