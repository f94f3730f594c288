package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("employee_handbook.pdf")
	id2 := IDFromContent("employee_handbook.pdf")
	assert.Equal(t, id1, id2)
}

func TestIDFromContent_DistinctContent(t *testing.T) {
	id1 := IDFromContent("handbook.pdf")
	id2 := IDFromContent("policy.pdf")
	assert.NotEqual(t, id1, id2)
}

func TestDocumentID_StableAcrossUploads(t *testing.T) {
	a := DocumentID("report.pdf")
	b := DocumentID("report.pdf")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, IDFromContent("report.pdf"), "document IDs are namespaced")
}

func TestChunkID_VariesWithGenerationAndSequence(t *testing.T) {
	docID := DocumentID("report.pdf")

	base := ChunkID(docID, 1, 0)
	assert.Equal(t, base, ChunkID(docID, 1, 0), "same inputs, same ID")
	assert.NotEqual(t, base, ChunkID(docID, 2, 0), "generation changes ID")
	assert.NotEqual(t, base, ChunkID(docID, 1, 1), "sequence changes ID")
}

func TestJobState_String(t *testing.T) {
	assert.Equal(t, "queued", JobStateQueued.String())
	assert.Equal(t, "ready", JobStateReady.String())
	assert.Equal(t, "unknown", JobStateUnknown.String())
	assert.Equal(t, "invalid", JobState(99).String())
}
