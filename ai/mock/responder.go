package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
)

// MockResponder is a test double for ai.Responder.
// It allows custom behavior injection via function fields.
type MockResponder struct {
	// PlanRetrievalFunc is called by PlanRetrieval if set.
	// If nil, the default decides to retrieve whenever the question
	// mentions a document-sounding word.
	PlanRetrievalFunc func(ctx context.Context, question string, history []ai.Turn) (*ai.ToolDecision, error)

	// SynthesizeFunc is called by Synthesize if set.
	// If nil, the default produces a short answer that names the cited
	// documents, or echoes the question when no citations are given.
	SynthesizeFunc func(ctx context.Context, question string, history []ai.Turn, citations map[string]*core.Citation) (string, error)

	mu         sync.Mutex
	planCalls  int
	synthCalls int
}

// NewMockResponder creates a mock responder with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockResponder().
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// Retrieval trigger words for the default planning heuristic.
var retrievalHints = []string{"document", "policy", "handbook", "report", "file", "pdf"}

// PlanRetrieval applies a keyword heuristic unless a custom function is set.
func (m *MockResponder) PlanRetrieval(ctx context.Context, question string, history []ai.Turn) (*ai.ToolDecision, error) {
	m.mu.Lock()
	m.planCalls++
	m.mu.Unlock()

	if m.PlanRetrievalFunc != nil {
		return m.PlanRetrievalFunc(ctx, question, history)
	}

	lower := strings.ToLower(question)
	for _, hint := range retrievalHints {
		if strings.Contains(lower, hint) {
			return &ai.ToolDecision{
				Invoke:    true,
				Query:     question,
				Rationale: "question references document content",
			}, nil
		}
	}
	return &ai.ToolDecision{
		Invoke:    false,
		Rationale: "general question",
		Answer:    "mock direct answer: " + question,
	}, nil
}

// Synthesize produces a deterministic answer naming the cited documents.
func (m *MockResponder) Synthesize(ctx context.Context, question string, history []ai.Turn, citations map[string]*core.Citation) (string, error) {
	m.mu.Lock()
	m.synthCalls++
	m.mu.Unlock()

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, question, history, citations)
	}

	if len(citations) == 0 {
		return "mock direct answer: " + question, nil
	}

	names := make([]string, 0, len(citations))
	for name := range citations {
		names = append(names, name)
	}
	sort.Strings(names)
	return "mock grounded answer [Source: " + strings.Join(names, ", ") + "]", nil
}

// PlanCallCount returns the number of PlanRetrieval calls.
func (m *MockResponder) PlanCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.planCalls
}

// SynthesizeCallCount returns the number of Synthesize calls.
func (m *MockResponder) SynthesizeCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synthCalls
}

// Reset clears call counts and custom functions.
func (m *MockResponder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planCalls = 0
	m.synthCalls = 0
	m.PlanRetrievalFunc = nil
	m.SynthesizeFunc = nil
}
