package chunker

import (
	"strings"
	"testing"

	"github.com/poiesic/docbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	c := New(DefaultConfig())

	assert.Nil(t, c.Chunk("", nil))
	assert.Nil(t, c.Chunk("   \n\n  ", nil))
}

func TestChunkSmallTextSingleChunk(t *testing.T) {
	c := New(DefaultConfig())

	text := "A short paragraph that easily fits in one chunk."
	chunks := c.Chunk(text, nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len([]rune(text)), chunks[0].End)
}

func TestChunkCoverageReconstruction(t *testing.T) {
	c := New(Config{MaxSize: 80, MinSize: 20, OverlapFraction: 0.2})

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Sentence number one of the paragraph. Second sentence here.\n\n")
	}
	text := strings.TrimSpace(b.String())
	runes := []rune(text)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)

	// Non-overlap spans tile the text exactly.
	var rebuilt []rune
	prev := 0
	for _, ch := range chunks {
		nonOverlapStart := ch.Start
		if nonOverlapStart < prev {
			nonOverlapStart = prev
		}
		assert.Equal(t, prev, nonOverlapStart)
		rebuilt = append(rebuilt, runes[nonOverlapStart:ch.End]...)
		prev = ch.End
	}
	assert.Equal(t, text, string(rebuilt))
}

func TestChunkOrderingAndBounds(t *testing.T) {
	c := New(Config{MaxSize: 60, MinSize: 10, OverlapFraction: 0.1})

	text := strings.Repeat("Words pile up into sentences. ", 30)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.LessOrEqual(t, len([]rune(ch.Text)), c.config.MaxSize+6,
			"chunk %d exceeds size ceiling by more than the overlap", i)
		assert.Less(t, ch.Start, ch.End)
		if i > 0 {
			assert.GreaterOrEqual(t, chunks[i-1].End, ch.Start,
				"chunk %d start leaves a gap", i)
			assert.Less(t, chunks[i-1].Start, ch.Start)
		}
	}
}

func TestChunkOverlap(t *testing.T) {
	c := New(Config{MaxSize: 50, MinSize: 10, OverlapFraction: 0.2})

	text := strings.Repeat("Alpha beta gamma delta epsilon zeta. ", 20)
	chunks := c.Chunk(text, nil)

	require.Greater(t, len(chunks), 1)
	// First chunk never reaches backward.
	assert.Equal(t, 0, chunks[0].Start)
	// Later chunks start before the previous chunk's end.
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].Start, chunks[i-1].End)
	}
}

func TestChunkNoBoundaries(t *testing.T) {
	c := New(Config{MaxSize: 40, MinSize: 10, OverlapFraction: 0})

	text := strings.Repeat("x", 100)
	chunks := c.Chunk(text, nil)

	require.Len(t, chunks, 3)
	assert.Equal(t, 40, len([]rune(chunks[0].Text)))
	assert.Equal(t, 40, len([]rune(chunks[1].Text)))
	assert.Equal(t, 20, len([]rune(chunks[2].Text)))
}

func TestChunkHeadingBoundaries(t *testing.T) {
	c := New(Config{MaxSize: 100, MinSize: 10, OverlapFraction: 0})

	// Two markdown sections separated by a single newline, so only the
	// heading boundary can split them.
	text := "# Alpha\n" + strings.Repeat("a", 80) + "\n# Beta\n" + strings.Repeat("b", 80)
	chunks := c.Chunk(text, nil)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "# Beta"))
	assert.Equal(t, chunks[0].End, chunks[1].Start)
}

func TestChunkTrailingFragmentFolded(t *testing.T) {
	c := New(Config{MaxSize: 100, MinSize: 30, OverlapFraction: 0})

	// Two paragraphs that fit one chunk each, then a tiny trailing one.
	text := strings.Repeat("a", 90) + "\n\n" + strings.Repeat("b", 90) + "\n\ntail"
	chunks := c.Chunk(text, nil)

	// The 4-rune tail folds into the second chunk.
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasSuffix(chunks[1].Text, "tail"))
}

func TestChunkPageRanges(t *testing.T) {
	c := New(Config{MaxSize: 1000, MinSize: 10, OverlapFraction: 0})

	page1 := strings.Repeat("p1 text. ", 10)
	page2 := strings.Repeat("p2 text. ", 10)
	text := page1 + "\n\n" + page2
	pages := []core.PageSpan{
		{Number: 1, Start: 0, End: len([]rune(page1))},
		{Number: 2, Start: len([]rune(page1)) + 2, End: len([]rune(text))},
	}

	chunks := c.Chunk(text, pages)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 2, chunks[0].PageEnd)
}

func TestChunkPerPageChunks(t *testing.T) {
	c := New(Config{MaxSize: 100, MinSize: 10, OverlapFraction: 0})

	page1 := strings.Repeat("a", 90)
	page2 := strings.Repeat("b", 90)
	text := page1 + "\n\n" + page2
	pages := []core.PageSpan{
		{Number: 1, Start: 0, End: 90},
		{Number: 2, Start: 92, End: 182},
	}

	chunks := c.Chunk(text, pages)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)
	assert.Equal(t, 2, chunks[1].PageEnd)
}

func TestChunkMultibyteOffsets(t *testing.T) {
	c := New(Config{MaxSize: 20, MinSize: 5, OverlapFraction: 0})

	text := strings.Repeat("é", 50)
	chunks := c.Chunk(text, nil)

	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.Equal(t, ch.End-ch.Start, len([]rune(ch.Text)))
	}
}

func TestNewFallsBackOnBadConfig(t *testing.T) {
	c := New(Config{MaxSize: 0})
	assert.Equal(t, DefaultMaxSize, c.config.MaxSize)

	c = New(Config{MaxSize: 100, MinSize: -5, OverlapFraction: 2})
	assert.Equal(t, 0, c.config.MinSize)
	assert.Equal(t, DefaultOverlapFraction, c.config.OverlapFraction)
}
