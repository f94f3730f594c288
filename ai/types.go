package ai

import "github.com/poiesic/docbase/core"

// ExtractedDocument is the structured result of document extraction.
type ExtractedDocument struct {
	// Text is the full extracted text, pages joined in order.
	Text string

	// Pages maps each source page to its rune offset span within Text.
	// May be empty for formats without page structure (plain text).
	Pages []core.PageSpan
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation history.
type Turn struct {
	Role    Role
	Content string
}

// ToolDecision is the outcome of a retrieval planning call: whether to invoke
// the knowledge-base search, and with what query. Produced per query, never
// persisted beyond the request.
type ToolDecision struct {
	// Invoke is true when the knowledge base should be searched.
	Invoke bool

	// Query is the model-optimized search query. Only set when Invoke is true.
	Query string

	// Rationale is a short human-readable reason for the decision.
	Rationale string

	// Answer optionally carries the direct answer produced alongside a
	// no-retrieval decision, saving a second model call. May be empty.
	Answer string
}
