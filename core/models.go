package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so identical content
// always maps to the same identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID derives the ID for a document from its sanitized filename.
// Re-uploading a file with the same name addresses the same document.
func DocumentID(filename string) ID {
	return IDFromContent("doc:" + filename)
}

// ChunkID derives the ID for a chunk from its document, generation and
// sequence index. Index upserts keyed by this ID are idempotent under retry.
func ChunkID(documentID ID, generation uint64, sequence int) ID {
	return IDFromContent(fmt.Sprintf("chunk:%d:%d:%d", documentID, generation, sequence))
}

// Document represents an uploaded document known to the knowledge base.
// Documents are immutable once created; ingestion runs reference them by ID.
type Document struct {
	Id           ID
	Filename     string // sanitized filename, the document's stable key
	OriginalName string // filename as supplied by the uploader
	SessionTag   string // owner/session tag supplied at upload time
	SizeBytes    int64
	SourceURL    string // URL surfaced in citations
	UploadedAt   time.Time
}

// IngestionJob tracks one ingestion attempt for a document.
// The pipeline owns the job; the status tracker holds a read-only projection.
type IngestionJob struct {
	Id         string // UUID
	DocumentId ID
	Generation uint64 // index generation this job builds
	State      JobState
	Detail     string // human-readable detail, set on failure
	PageCount  int
	ChunkCount int
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	UpdatedAt  time.Time
}

// PageSpan locates one source page inside extracted text as a half-open
// rune offset range [Start, End).
type PageSpan struct {
	Number int // 1-based page number
	Start  int
	End    int
}

// Chunk is an ordered fragment of a document's extracted text, the unit of
// embedding and retrieval. Chunks from one document form a contiguous cover
// of the extracted text, ordered by sequence index, with a bounded overlap
// between neighbours.
type Chunk struct {
	Id         ID
	DocumentId ID
	Generation uint64
	Sequence   int
	Text       string
	CharLen    int // length in runes
	PageStart  int
	PageEnd    int
}

// IndexEntry is the persisted tuple stored in the vector index. Entries are
// created only after successful embedding and committed per generation;
// an entry is either fully queryable or absent.
type IndexEntry struct {
	ChunkId      ID
	DocumentId   ID
	Generation   uint64
	Sequence     int
	Text         string
	Vector       []float32
	DocumentName string
	SourceURL    string
	PageStart    int
	PageEnd      int
}

// SearchResult is one ranked hit from the vector index.
type SearchResult struct {
	Entry *IndexEntry
	Score float32
}

// Citation maps a document to the URL and the chunk texts that contributed
// to an answer. Context is ordered by chunk sequence index.
type Citation struct {
	DocumentName string   `json:"document"`
	SourceURL    string   `json:"url"`
	Context      []string `json:"context"`
}
