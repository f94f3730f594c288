package ingestion

import (
	"sync"
	"time"

	"github.com/poiesic/docbase/core"
)

// Snapshot is the tracker's read-only projection of a document's latest
// ingestion job.
type Snapshot struct {
	DocumentId core.ID
	JobId      string
	State      core.JobState
	Detail     string
	PageCount  int
	ChunkCount int
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	UpdatedAt  time.Time
}

// StatusSink receives the pipeline's job observations and serves status
// lookups. Tracker is the standard implementation.
type StatusSink interface {
	Observe(job *core.IngestionJob)
	Status(docID core.ID) Snapshot
}

// Tracker holds in-memory ingestion status per document. The pipeline
// writes a snapshot on every state change; readers never block writers for
// long since the map is guarded by a single RWMutex and snapshots are
// copied out.
type Tracker struct {
	mu    sync.RWMutex
	byDoc map[core.ID]Snapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{byDoc: make(map[core.ID]Snapshot)}
}

// Observe records the job's current state as the document's snapshot.
// Stale observations from a superseded job are dropped once a newer job
// has been observed for the document.
func (t *Tracker) Observe(job *core.IngestionJob) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byDoc[job.DocumentId]; ok {
		if prev.JobId != job.Id && prev.EnqueuedAt.After(job.EnqueuedAt) {
			return
		}
	}

	t.byDoc[job.DocumentId] = Snapshot{
		DocumentId: job.DocumentId,
		JobId:      job.Id,
		State:      job.State,
		Detail:     job.Detail,
		PageCount:  job.PageCount,
		ChunkCount: job.ChunkCount,
		EnqueuedAt: job.EnqueuedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
		UpdatedAt:  job.UpdatedAt,
	}
}

// Status returns the snapshot for a document. Documents never observed
// report JobStateUnknown.
func (t *Tracker) Status(docID core.ID) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if snap, ok := t.byDoc[docID]; ok {
		return snap
	}
	return Snapshot{DocumentId: docID, State: core.JobStateUnknown}
}

// Forget drops the snapshot for a document, for use after deletion.
func (t *Tracker) Forget(docID core.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byDoc, docID)
}
