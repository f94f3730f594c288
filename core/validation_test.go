package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "handbook.pdf", "handbook.pdf"},
		{"spaces", "annual report 2024.pdf", "annual_report_2024.pdf"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\notes.md`, "notes.md"},
		{"unicode replaced", "résumé.pdf", "r_sum_.pdf"},
		{"only junk", "///", ""},
		{"leading dots trimmed", "..hidden.pdf", "hidden.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestValidateDocument(t *testing.T) {
	valid := &Document{Id: DocumentID("a.pdf"), Filename: "a.pdf", SizeBytes: 10}
	assert.NoError(t, ValidateDocument(valid))

	assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)

	noName := &Document{SizeBytes: 10}
	err := ValidateDocument(noName)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, ErrEmptyFilename)

	negative := &Document{Filename: "a.pdf", SizeBytes: -1}
	assert.ErrorIs(t, ValidateDocument(negative), ErrInvalidDocument)
}

func TestValidateChunk(t *testing.T) {
	valid := &Chunk{Text: "some content", Sequence: 0, PageStart: 1, PageEnd: 1}
	assert.NoError(t, ValidateChunk(valid))

	assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)

	empty := &Chunk{Sequence: 0}
	err := ValidateChunk(empty)
	assert.ErrorIs(t, err, ErrInvalidChunk)
	assert.ErrorIs(t, err, ErrEmptyChunkText)

	badSeq := &Chunk{Text: "x", Sequence: -1}
	assert.ErrorIs(t, ValidateChunk(badSeq), ErrInvalidChunk)

	badPages := &Chunk{Text: "x", PageStart: 3, PageEnd: 1}
	assert.ErrorIs(t, ValidateChunk(badPages), ErrInvalidChunk)
}
