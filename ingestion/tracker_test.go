package ingestion

import (
	"testing"
	"time"

	"github.com/poiesic/docbase/core"
	"github.com/stretchr/testify/assert"
)

func TestTrackerUnknownForAbsent(t *testing.T) {
	tracker := NewTracker()

	snap := tracker.Status(core.ID(1))
	assert.Equal(t, core.JobStateUnknown, snap.State)
	assert.Equal(t, core.ID(1), snap.DocumentId)
}

func TestTrackerObserve(t *testing.T) {
	tracker := NewTracker()

	job := &core.IngestionJob{
		Id:         "job-1",
		DocumentId: core.ID(1),
		State:      core.JobStateChunking,
		PageCount:  3,
		EnqueuedAt: time.Now().UTC(),
	}
	tracker.Observe(job)

	snap := tracker.Status(core.ID(1))
	assert.Equal(t, "job-1", snap.JobId)
	assert.Equal(t, core.JobStateChunking, snap.State)
	assert.Equal(t, 3, snap.PageCount)
}

func TestTrackerNewerJobWins(t *testing.T) {
	tracker := NewTracker()
	now := time.Now().UTC()

	old := &core.IngestionJob{
		Id: "job-1", DocumentId: core.ID(1),
		State: core.JobStateEmbedding, EnqueuedAt: now,
	}
	newer := &core.IngestionJob{
		Id: "job-2", DocumentId: core.ID(1),
		State: core.JobStateQueued, EnqueuedAt: now.Add(time.Second),
	}

	tracker.Observe(old)
	tracker.Observe(newer)

	// A late observation from the superseded job does not clobber the
	// newer job's snapshot.
	old.State = core.JobStateFailed
	tracker.Observe(old)

	snap := tracker.Status(core.ID(1))
	assert.Equal(t, "job-2", snap.JobId)
	assert.Equal(t, core.JobStateQueued, snap.State)
}

func TestTrackerForget(t *testing.T) {
	tracker := NewTracker()

	tracker.Observe(&core.IngestionJob{Id: "j", DocumentId: core.ID(1), State: core.JobStateReady})
	tracker.Forget(core.ID(1))

	assert.Equal(t, core.JobStateUnknown, tracker.Status(core.ID(1)).State)
}
