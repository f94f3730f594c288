package ai

import (
	"context"

	"github.com/poiesic/docbase/core"
)

// Extractor converts a raw document into structured text with page layout.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract parses the raw document bytes and returns the extracted text
	// together with per-page offset spans. Returns an error wrapping
	// core.ErrExtractionFailed if the document cannot be parsed.
	Extract(ctx context.Context, filename string, data []byte) (*ExtractedDocument, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The batch fails as a unit: either all vectors are returned, in input
	// order, or an error. Callers retry the whole batch with backoff.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Responder is the reasoning capability behind the agent router.
// It decides whether a query needs knowledge-base retrieval and synthesizes
// final answers. The router treats it as an opaque oracle and enforces the
// tool-call contract itself.
// Implementations must be thread-safe for concurrent use.
type Responder interface {
	// PlanRetrieval decides, from the question and conversation history,
	// whether the knowledge base should be searched before answering.
	// When the decision is not to search, the returned decision may carry
	// a ready direct answer to avoid a second model call.
	PlanRetrieval(ctx context.Context, question string, history []Turn) (*ToolDecision, error)

	// Synthesize produces the final answer text. When citations are provided
	// the answer must be grounded in them alone; with no citations the model
	// answers from its own knowledge.
	Synthesize(ctx context.Context, question string, history []Turn, citations map[string]*core.Citation) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Responder instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Responder returns the reasoning service.
	// The returned Responder is safe for concurrent use.
	Responder() Responder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
