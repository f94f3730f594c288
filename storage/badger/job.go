package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *JobRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *JobRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutJob stores or replaces a job record and points the document's
// latest-job key at it. A late write from a superseded job does not move
// the pointer away from a job enqueued after it.
func (r *JobRepository) PutJob(ctx context.Context, job *core.IngestionJob) error {
	job.UpdatedAt = time.Now().UTC()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}

		latest, err := r.latestInTx(tx, job.DocumentId)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if latest == nil || latest.Id == job.Id || !latest.EnqueuedAt.After(job.EnqueuedAt) {
			if err := tx.Set(makeLatestJobKey(job.DocumentId), []byte(job.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves a job by its UUID.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*core.IngestionJob, error) {
	var job *core.IngestionJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = r.readJob(tx, id)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return job, nil
}

// LatestJobForDocument retrieves the most recently enqueued job for a document.
func (r *JobRepository) LatestJobForDocument(ctx context.Context, docID core.ID) (*core.IngestionJob, error) {
	var job *core.IngestionJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = r.latestInTx(tx, docID)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) latestInTx(tx *badger.Txn, docID core.ID) (*core.IngestionJob, error) {
	item, err := tx.Get(makeLatestJobKey(docID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var jobID string
	if err := item.Value(func(val []byte) error {
		jobID = string(val)
		return nil
	}); err != nil {
		return nil, err
	}

	return r.readJob(tx, jobID)
}

func (r *JobRepository) readJob(tx *badger.Txn, id string) (*core.IngestionJob, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var job *core.IngestionJob
	err = item.Value(func(val []byte) error {
		job, err = storage.UnmarshalJob(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
