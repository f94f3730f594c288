// Package chunker splits extracted document text into overlapping,
// size-bounded chunks along natural boundaries, preserving rune offsets
// and page ranges for citation.
package chunker
