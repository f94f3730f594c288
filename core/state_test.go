package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_HappyPath(t *testing.T) {
	sequence := []JobState{
		JobStateQueued,
		JobStateExtracting,
		JobStateChunking,
		JobStateEmbedding,
		JobStateIndexing,
		JobStateReady,
	}

	for i := 0; i < len(sequence)-1; i++ {
		assert.True(t, CanTransition(sequence[i], sequence[i+1]),
			"%s -> %s should be allowed", sequence[i], sequence[i+1])
	}
}

func TestCanTransition_NoSkippingOrRevisiting(t *testing.T) {
	tests := []struct {
		name string
		from JobState
		to   JobState
	}{
		{"skip extraction", JobStateQueued, JobStateChunking},
		{"skip to ready", JobStateQueued, JobStateReady},
		{"backwards", JobStateEmbedding, JobStateChunking},
		{"repeat state", JobStateIndexing, JobStateIndexing},
		{"back to queued", JobStateExtracting, JobStateQueued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransition_FailedFromAnyActiveState(t *testing.T) {
	active := []JobState{
		JobStateQueued,
		JobStateExtracting,
		JobStateChunking,
		JobStateEmbedding,
		JobStateIndexing,
	}
	for _, state := range active {
		assert.True(t, CanTransition(state, JobStateFailed), "%s -> failed", state)
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []JobState{JobStateReady, JobStateFailed} {
		for to := JobStateUnknown; to <= JobStateFailed; to++ {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestTransition(t *testing.T) {
	job := &IngestionJob{State: JobStateQueued}

	assert.NoError(t, Transition(job, JobStateExtracting))
	assert.Equal(t, JobStateExtracting, job.State)

	err := Transition(job, JobStateReady)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, JobStateExtracting, job.State, "rejected transitions leave the job untouched")
}

func TestJobState_Terminal(t *testing.T) {
	assert.True(t, JobStateReady.Terminal())
	assert.True(t, JobStateFailed.Terminal())
	assert.False(t, JobStateQueued.Terminal())
	assert.False(t, JobStateIndexing.Terminal())
	assert.False(t, JobStateUnknown.Terminal())
}
