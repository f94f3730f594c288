package extract

import (
	"context"
	"testing"

	"github.com/poiesic/docbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Supported("report.pdf"))
	assert.True(t, r.Supported("notes.txt"))
	assert.True(t, r.Supported("README.md"))
	assert.True(t, r.Supported("UPPER.PDF"))
	assert.False(t, r.Supported("image.png"))
	assert.False(t, r.Supported("archive"))
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	_, err := r.ForFilename("photo.jpeg")
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestRegistryExtensions(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{".md", ".pdf", ".txt"}, r.Extensions())
}

func TestPlainTextExtract(t *testing.T) {
	e := NewPlainTextExtractor()

	doc, err := e.Extract(context.Background(), "notes.txt", []byte("  hello world\nsecond line  "))
	require.NoError(t, err)

	assert.Equal(t, "hello world\nsecond line", doc.Text)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, 0, doc.Pages[0].Start)
	assert.Equal(t, len([]rune(doc.Text)), doc.Pages[0].End)
}

func TestPlainTextExtractInvalidUTF8(t *testing.T) {
	e := NewPlainTextExtractor()

	_, err := e.Extract(context.Background(), "bad.txt", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, core.ErrExtractionFailed)
}

func TestPlainTextExtractMultibyte(t *testing.T) {
	e := NewPlainTextExtractor()

	doc, err := e.Extract(context.Background(), "notes.txt", []byte("héllo wörld"))
	require.NoError(t, err)
	assert.Equal(t, 11, doc.Pages[0].End)
}
