// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/retrieval"
)

const (
	// InsufficientContextAnswer is returned when retrieval found nothing
	// relevant; synthesis is skipped so the model cannot hallucinate
	// document contents.
	InsufficientContextAnswer = "I could not find information relevant to your question in the uploaded documents."

	// DegradedAnswer is returned when the knowledge base cannot be
	// reached at all.
	DegradedAnswer = "The knowledge base is currently unavailable. Please try again shortly."

	// Retry policy for responder calls.
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// Response is the outcome of one question.
type Response struct {
	// Answer is the final text shown to the user.
	Answer string `json:"answer"`

	// Source maps document names to the citations that grounded the
	// answer. Empty when the answer did not use the knowledge base.
	Source map[string]*core.Citation `json:"source"`

	// Decision records whether and how retrieval was invoked.
	Decision *ai.ToolDecision `json:"-"`
}

// Router answers questions, deciding per question whether to consult the
// knowledge base. At most one retrieval happens per question.
type Router struct {
	retriever *retrieval.Retriever
	responder ai.Responder
	history   *HistoryStore
	logger    *slog.Logger

	maxAttempts int
	baseDelay   time.Duration
}

// Option configures a Router.
type Option func(*Router) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithHistoryStore sets a custom history store.
func WithHistoryStore(store *HistoryStore) Option {
	return func(r *Router) error {
		if store != nil {
			r.history = store
		}
		return nil
	}
}

// WithRetryPolicy sets the retry attempts and base backoff delay used for
// responder calls.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Router) error {
		if maxAttempts > 0 {
			r.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			r.baseDelay = baseDelay
		}
		return nil
	}
}

// NewRouter creates a new router.
func NewRouter(retriever *retrieval.Retriever, responder ai.Responder, opts ...Option) (*Router, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if responder == nil {
		return nil, ErrResponderRequired
	}

	r := &Router{
		retriever:   retriever,
		responder:   responder,
		history:     NewHistoryStore(0),
		logger:      slog.Default(),
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// History returns the router's session history store.
func (r *Router) History() *HistoryStore {
	return r.history
}

// Ask answers a question within a session. A zero scope searches all
// documents; a non-zero scope restricts retrieval to one document.
//
// The flow is: plan (may answer directly), retrieve once if planned,
// synthesize from citations. When retrieval yields nothing relevant the
// canned insufficient-context answer is returned with an empty source map
// and no synthesis call. When the knowledge base or the chat backend is
// unreachable after retries the router degrades to a plain unavailability
// answer instead of failing the request.
func (r *Router) Ask(ctx context.Context, question, sessionID string, scope core.ID) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	history := r.history.Turns(sessionID)

	var decision *ai.ToolDecision
	plan := func() error {
		var err error
		decision, err = r.responder.PlanRetrieval(ctx, question, history)
		return err
	}

	var response *Response
	if err := core.RetryWithBackoff(ctx, plan, r.maxAttempts, r.baseDelay); err != nil {
		r.logger.Warn("chat backend unavailable during planning, degrading", "err", err)
		response = &Response{
			Answer: DegradedAnswer,
			Source: map[string]*core.Citation{},
		}
	} else if decision.Invoke {
		var err error
		response, err = r.answerFromKnowledgeBase(ctx, question, history, decision, scope)
		if err != nil {
			return nil, err
		}
	} else {
		r.logger.Debug("answering without retrieval", "session", sessionID)
		response = &Response{
			Answer:   decision.Answer,
			Source:   map[string]*core.Citation{},
			Decision: decision,
		}
	}

	r.history.Append(sessionID,
		ai.Turn{Role: ai.RoleUser, Content: question},
		ai.Turn{Role: ai.RoleAssistant, Content: response.Answer},
	)
	return response, nil
}

func (r *Router) answerFromKnowledgeBase(ctx context.Context, question string, history []ai.Turn, decision *ai.ToolDecision, scope core.ID) (*Response, error) {
	r.logger.Debug("retrieving context", "query", decision.Query, "scope", scope)

	citations, err := r.retriever.Retrieve(ctx, decision.Query, scope)
	if err != nil {
		if errors.Is(err, core.ErrRetrievalUnavailable) {
			r.logger.Warn("retrieval unavailable, degrading", "err", err)
			return &Response{
				Answer:   DegradedAnswer,
				Source:   map[string]*core.Citation{},
				Decision: decision,
			}, nil
		}
		return nil, err
	}

	if len(citations) == 0 {
		r.logger.Debug("no passages cleared the relevance floor")
		return &Response{
			Answer:   InsufficientContextAnswer,
			Source:   map[string]*core.Citation{},
			Decision: decision,
		}, nil
	}

	var answer string
	synthesize := func() error {
		var err error
		answer, err = r.responder.Synthesize(ctx, question, history, citations)
		return err
	}
	if err := core.RetryWithBackoff(ctx, synthesize, r.maxAttempts, r.baseDelay); err != nil {
		r.logger.Warn("chat backend unavailable during synthesis, degrading", "err", err)
		return &Response{
			Answer:   DegradedAnswer,
			Source:   map[string]*core.Citation{},
			Decision: decision,
		}, nil
	}

	return &Response{
		Answer:   answer,
		Source:   citations,
		Decision: decision,
	}, nil
}
