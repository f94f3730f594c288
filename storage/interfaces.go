package storage

import (
	"context"

	"github.com/poiesic/docbase/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// PutDocument stores or replaces a document record.
	// Sets UploadedAt if not already set.
	PutDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all known documents, ordered by filename.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document record by ID.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// JobRepository provides operations for managing ingestion jobs.
type JobRepository interface {
	Repository

	// PutJob stores or replaces a job record and marks it as the latest
	// job for its document. Sets UpdatedAt automatically.
	PutJob(ctx context.Context, job *core.IngestionJob) error

	// GetJob retrieves a job by its UUID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id string) (*core.IngestionJob, error)

	// LatestJobForDocument retrieves the most recently stored job for a
	// document. Returns ErrNotFound if the document has no jobs.
	LatestJobForDocument(ctx context.Context, docID core.ID) (*core.IngestionJob, error)
}

// IndexRepository provides operations for the vector index.
type IndexRepository interface {
	Repository

	// UpsertGeneration writes all entries for one document generation and
	// flips the document's current generation pointer in a single
	// transaction. Queries observe either the previous generation or the
	// new one, never a mixture or an empty window. A commit whose
	// generation does not exceed the current pointer is dropped without
	// error. Entries from older generations are swept after the commit.
	UpsertGeneration(ctx context.Context, docID core.ID, generation uint64, entries []*core.IndexEntry) error

	// CurrentGeneration returns the live generation for a document, or
	// 0 when the document has never been indexed.
	CurrentGeneration(ctx context.Context, docID core.ID) (uint64, error)

	// Search finds index entries similar to the given vector.
	// Returns entries from live generations with similarity >= minSimilarity,
	// up to limit results, ordered by score (highest first, ties broken by
	// lower sequence). A non-zero scope restricts results to one document.
	Search(ctx context.Context, vector []float32, minSimilarity float32, limit int, scope core.ID) ([]*core.SearchResult, error)

	// DeleteDocument removes all index entries and the generation pointer
	// for a document. Missing documents are not an error.
	DeleteDocument(ctx context.Context, docID core.ID) error
}
