package core

import "fmt"

// JobState identifies the lifecycle stage of an ingestion job.
// The zero value is JobStateUnknown, distinct from Queued, so a status
// lookup for a document that was never submitted is distinguishable.
type JobState int

const (
	JobStateUnknown JobState = iota
	JobStateQueued
	JobStateExtracting
	JobStateChunking
	JobStateEmbedding
	JobStateIndexing
	JobStateReady
	JobStateFailed
)

var jobStateNames = map[JobState]string{
	JobStateUnknown:    "unknown",
	JobStateQueued:     "queued",
	JobStateExtracting: "extracting",
	JobStateChunking:   "chunking",
	JobStateEmbedding:  "embedding",
	JobStateIndexing:   "indexing",
	JobStateReady:      "ready",
	JobStateFailed:     "failed",
}

func (s JobState) String() string {
	if name, ok := jobStateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Terminal reports whether the state ends the job's lifecycle.
func (s JobState) Terminal() bool {
	return s == JobStateReady || s == JobStateFailed
}

// Transition moves a job to the next state, rejecting illegal moves with
// ErrInvalidTransition.
func Transition(job *IngestionJob, next JobState) error {
	if !CanTransition(job.State, next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, job.State, next)
	}
	job.State = next
	return nil
}

// CanTransition reports whether a job may move from one state to another.
// Progress is monotonic: each stage advances exactly one step, no state is
// revisited, and any non-terminal state may transition to Failed.
func CanTransition(from, to JobState) bool {
	if from.Terminal() {
		return false
	}
	if to == JobStateFailed {
		return from >= JobStateQueued && from <= JobStateIndexing
	}
	switch from {
	case JobStateQueued:
		return to == JobStateExtracting
	case JobStateExtracting:
		return to == JobStateChunking
	case JobStateChunking:
		return to == JobStateEmbedding
	case JobStateEmbedding:
		return to == JobStateIndexing
	case JobStateIndexing:
		return to == JobStateReady
	default:
		return false
	}
}
