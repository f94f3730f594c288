package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// searchToolName is the function the model calls to pull passages from the
// knowledge base.
const searchToolName = "search_knowledge_base"

var searchTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        searchToolName,
		Description: "Search the user's uploaded documents for passages relevant to a question. Use a short, focused query.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to run against the knowledge base.",
				},
			},
			"required": []string{"query"},
		},
	},
}

// Responder implements ai.Responder against an OpenAI-compatible chat API.
type Responder struct {
	llm    *openai.LLM
	logger *slog.Logger
}

func newResponder(config *ai.Config) (*Responder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Responder{
		llm:    llm,
		logger: slog.Default().With("component", "openai-responder"),
	}, nil
}

// NewResponder creates a new responder using the provided configuration.
func NewResponder(config *ai.Config) (ai.Responder, error) {
	return newResponder(config)
}

// PlanRetrieval asks the model whether the question needs knowledge base
// context. When the model calls the search tool the decision carries the
// query; otherwise the model's direct answer is returned as-is.
func (r *Responder) PlanRetrieval(ctx context.Context, question string, history []ai.Turn) (*ai.ToolDecision, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, routerSystemPrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := r.llm.GenerateContent(ctx, messages, llms.WithTools([]llms.Tool{searchTool}))
	if err != nil {
		r.logger.Error("routing call failed", "err", err)
		return nil, fmt.Errorf("routing call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("routing call: model returned no choices")
	}

	choice := resp.Choices[0]
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil || call.FunctionCall.Name != searchToolName {
			continue
		}
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
			r.logger.Warn("malformed tool arguments, falling back to question text", "err", err)
			args.Query = question
		}
		if strings.TrimSpace(args.Query) == "" {
			args.Query = question
		}
		return &ai.ToolDecision{
			Invoke:    true,
			Query:     args.Query,
			Rationale: "model requested a knowledge base search",
		}, nil
	}

	return &ai.ToolDecision{
		Invoke:    false,
		Rationale: "model answered without retrieval",
		Answer:    choice.Content,
	}, nil
}

// Synthesize composes the final answer from retrieved citations. The
// context block is rendered deterministically so regenerated answers see
// the same prompt.
func (r *Responder) Synthesize(ctx context.Context, question string, history []ai.Turn, citations map[string]*core.Citation) (string, error) {
	prompt := synthesisSystemPrompt + "\n\nContext:\n" + renderContext(citations)

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, prompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := r.llm.GenerateContent(ctx, messages)
	if err != nil {
		r.logger.Error("synthesis call failed", "err", err)
		return "", fmt.Errorf("synthesis call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("synthesis call: model returned no choices")
	}

	return resp.Choices[0].Content, nil
}

func historyMessages(history []ai.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == ai.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	return messages
}

func renderContext(citations map[string]*core.Citation) string {
	names := make([]string, 0, len(citations))
	for name := range citations {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		citation := citations[name]
		fmt.Fprintf(&b, "Document: %s\n", name)
		for _, passage := range citation.Context {
			b.WriteString(passage)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
