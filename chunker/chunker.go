// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunker

import (
	"strings"
	"unicode"

	"github.com/poiesic/docbase/core"
)

const (
	// DefaultMaxSize is the chunk size ceiling in runes.
	DefaultMaxSize = 512

	// DefaultMinSize is the preferred floor; trailing fragments below it
	// are folded into the previous chunk when possible.
	DefaultMinSize = 100

	// DefaultOverlapFraction of MaxSize is prepended from the preceding
	// text to every chunk after the first.
	DefaultOverlapFraction = 0.15
)

// Candidate is a chunk of source text with its rune span and page range.
// Offsets are rune indices into the extracted text.
type Candidate struct {
	Text      string
	Start     int
	End       int
	PageStart int
	PageEnd   int
}

// Config controls chunk sizing. All sizes are in runes.
type Config struct {
	MaxSize         int
	MinSize         int
	OverlapFraction float64
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:         DefaultMaxSize,
		MinSize:         DefaultMinSize,
		OverlapFraction: DefaultOverlapFraction,
	}
}

// Chunker splits extracted text into overlapping candidates along natural
// boundaries: markdown headings first, then paragraphs, then sentences,
// then fixed windows for pathological runs with no boundaries at all.
type Chunker struct {
	config Config
}

// New creates a chunker. A zero or negative MaxSize falls back to the
// default configuration.
func New(config Config) *Chunker {
	if config.MaxSize <= 0 {
		config = DefaultConfig()
	}
	if config.MinSize < 0 {
		config.MinSize = 0
	}
	if config.OverlapFraction < 0 || config.OverlapFraction >= 1 {
		config.OverlapFraction = DefaultOverlapFraction
	}
	return &Chunker{config: config}
}

// span is a half-open rune interval into the source text.
type span struct {
	start, end int
}

// Chunk splits text into candidates. Pages supply the page ranges carried
// onto each candidate; an empty page list yields zero page numbers. Empty
// or whitespace-only text returns nil.
//
// Every rune of non-overlap text is covered by exactly one candidate, so
// concatenating the non-overlap portions reconstructs the source.
func (c *Chunker) Chunk(text string, pages []core.PageSpan) []Candidate {
	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}

	atoms := c.atomize(runes, 0, len(runes))
	merged := c.merge(runes, atoms)
	overlap := int(c.config.OverlapFraction * float64(c.config.MaxSize))

	candidates := make([]Candidate, 0, len(merged))
	for i, s := range merged {
		start := s.start
		if i > 0 && overlap > 0 {
			start -= overlap
			if start < merged[i-1].start {
				start = merged[i-1].start
			}
		}
		candidates = append(candidates, Candidate{
			Text:      string(runes[start:s.end]),
			Start:     start,
			End:       s.end,
			PageStart: pageAt(pages, start),
			PageEnd:   pageAt(pages, s.end-1),
		})
	}
	return candidates
}

// atomize recursively splits [start,end) into pieces no larger than
// MaxSize, preferring heading boundaries, then paragraphs, then sentences,
// then fixed windows.
func (c *Chunker) atomize(runes []rune, start, end int) []span {
	if end-start <= c.config.MaxSize {
		return []span{{start, end}}
	}

	if parts := splitAt(runes, start, end, headingBreaks); len(parts) > 1 {
		return c.recurse(runes, parts)
	}
	if parts := splitAt(runes, start, end, paragraphBreaks); len(parts) > 1 {
		return c.recurse(runes, parts)
	}
	if parts := splitAt(runes, start, end, sentenceBreaks); len(parts) > 1 {
		return c.recurse(runes, parts)
	}

	// No natural boundary in range. Cut fixed windows.
	var out []span
	for s := start; s < end; s += c.config.MaxSize {
		e := s + c.config.MaxSize
		if e > end {
			e = end
		}
		out = append(out, span{s, e})
	}
	return out
}

func (c *Chunker) recurse(runes []rune, parts []span) []span {
	var out []span
	for _, p := range parts {
		out = append(out, c.atomize(runes, p.start, p.end)...)
	}
	return out
}

// merge greedily packs consecutive atoms into chunks up to MaxSize, then
// folds a trailing fragment below MinSize into its predecessor when the
// combined chunk still fits.
func (c *Chunker) merge(runes []rune, atoms []span) []span {
	var out []span
	for _, atom := range atoms {
		if n := len(out); n > 0 && atom.end-out[n-1].start <= c.config.MaxSize {
			out[n-1].end = atom.end
			continue
		}
		out = append(out, atom)
	}

	if n := len(out); n > 1 {
		last := out[n-1]
		if last.end-last.start < c.config.MinSize && last.end-out[n-2].start <= c.config.MaxSize {
			out[n-2].end = last.end
			out = out[:n-1]
		}
	}
	return out
}

// headingBreaks reports a cut directly before a markdown heading line so
// each section starts its own part. The newline stays with the preceding
// part.
func headingBreaks(runes []rune, i int) int {
	if runes[i] != '\n' {
		return -1
	}
	j := i + 1
	hashes := 0
	for j < len(runes) && runes[j] == '#' {
		hashes++
		j++
	}
	if hashes == 0 || hashes > 6 || j >= len(runes) || runes[j] != ' ' {
		return -1
	}
	return i + 1
}

// paragraphBreaks finds the rune index just past a blank-line separator.
func paragraphBreaks(runes []rune, i int) int {
	if runes[i] != '\n' {
		return -1
	}
	j := i + 1
	sawSecond := false
	for j < len(runes) && (runes[j] == '\n' || runes[j] == ' ' || runes[j] == '\t') {
		if runes[j] == '\n' {
			sawSecond = true
		}
		j++
	}
	if !sawSecond {
		return -1
	}
	return j
}

// sentenceBreaks finds the rune index just past sentence-ending
// punctuation followed by whitespace.
func sentenceBreaks(runes []rune, i int) int {
	r := runes[i]
	if r != '.' && r != '!' && r != '?' {
		return -1
	}
	j := i + 1
	if j >= len(runes) || !unicode.IsSpace(runes[j]) {
		return -1
	}
	for j < len(runes) && unicode.IsSpace(runes[j]) {
		j++
	}
	return j
}

// splitAt cuts [start,end) at every boundary the break function reports,
// keeping separators attached to the preceding part so coverage is exact.
func splitAt(runes []rune, start, end int, breakAt func([]rune, int) int) []span {
	var parts []span
	partStart := start
	for i := start; i < end; i++ {
		next := breakAt(runes, i)
		if next < 0 || next >= end {
			continue
		}
		parts = append(parts, span{partStart, next})
		partStart = next
		i = next - 1
	}
	if partStart < end {
		parts = append(parts, span{partStart, end})
	}
	return parts
}

// pageAt maps a rune offset to its page number, 0 when no pages are known.
func pageAt(pages []core.PageSpan, offset int) int {
	for _, p := range pages {
		if offset >= p.Start && offset < p.End {
			return p.Number
		}
	}
	// Offsets falling into separators between pages belong to the last
	// page that started before them.
	page := 0
	for _, p := range pages {
		if p.Start <= offset {
			page = p.Number
		}
	}
	return page
}
