package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/storage"
)

const (
	// DefaultMinSimilarity is the relevance floor; weaker hits are
	// discarded rather than padded into answers.
	DefaultMinSimilarity = 0.25

	// DefaultMaxHits caps the number of chunks fed into synthesis.
	DefaultMaxHits = 8

	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// Retriever embeds a query and resolves it against the vector index,
// grouping the surviving chunks into per-document citations.
type Retriever struct {
	index         storage.IndexRepository
	embedder      ai.Embedder
	minSimilarity float32
	maxHits       int
	maxAttempts   int
	baseDelay     time.Duration
	logger        *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the relevance floor.
func WithMinSimilarity(min float32) Option {
	return func(r *Retriever) error {
		r.minSimilarity = min
		return nil
	}
}

// WithMaxHits sets the result cap.
func WithMaxHits(n int) Option {
	return func(r *Retriever) error {
		if n > 0 {
			r.maxHits = n
		}
		return nil
	}
}

// WithRetryPolicy sets the retry attempts and base backoff delay used for
// query embedding.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Retriever) error {
		if maxAttempts > 0 {
			r.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			r.baseDelay = baseDelay
		}
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(index storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		index:         index,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		maxHits:       DefaultMaxHits,
		maxAttempts:   defaultMaxAttempts,
		baseDelay:     defaultBaseDelay,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve searches the knowledge base for passages relevant to the query.
// A zero scope searches all documents; a non-zero scope restricts the
// search to one. An empty result map means nothing cleared the relevance
// floor, which is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope core.ID) (map[string]*core.Citation, error) {
	return r.RetrieveWithMonitor(ctx, query, scope, nil)
}

// RetrieveWithMonitor is Retrieve with observation hooks for each stage.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, scope core.ID, monitor Monitor) (map[string]*core.Citation, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query)

	var vector []float32
	embed := func() error {
		var err error
		vector, err = r.embedder.EmbedText(ctx, query)
		return err
	}
	if err := core.RetryWithBackoff(ctx, embed, r.maxAttempts, r.baseDelay); err != nil {
		r.logger.Error("query embedding failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalUnavailable, err)
	}
	vector = core.NormalizeVector(vector)
	monitor.AfterQueryEmbedding(len(vector))

	results, err := r.index.Search(ctx, vector, r.minSimilarity, r.maxHits, scope)
	if err != nil {
		r.logger.Error("index search failed", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrRetrievalUnavailable, err)
	}
	monitor.AfterIndexSearch(results)

	citations := groupCitations(results)
	monitor.Finish(citations)

	r.logger.Debug("retrieval complete",
		"query_len", len(query), "hits", len(results), "documents", len(citations))
	return citations, nil
}

// groupCitations folds ranked hits into per-document citations, with each
// document's passages ordered by their position in the source.
func groupCitations(results []*core.SearchResult) map[string]*core.Citation {
	type hit struct {
		sequence int
		text     string
	}
	byDoc := make(map[string][]hit)
	urls := make(map[string]string)

	for _, result := range results {
		entry := result.Entry
		byDoc[entry.DocumentName] = append(byDoc[entry.DocumentName], hit{
			sequence: entry.Sequence,
			text:     entry.Text,
		})
		urls[entry.DocumentName] = entry.SourceURL
	}

	citations := make(map[string]*core.Citation, len(byDoc))
	for name, hits := range byDoc {
		sort.Slice(hits, func(i, j int) bool { return hits[i].sequence < hits[j].sequence })

		context := make([]string, len(hits))
		for i, h := range hits {
			context[i] = h.text
		}
		citations[name] = &core.Citation{
			DocumentName: name,
			SourceURL:    urls[name],
			Context:      context,
		}
	}
	return citations
}
