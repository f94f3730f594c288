package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docbase/core"
)

// Key prefixes for different data types
const (
	documentPrefix   = "docrec"
	jobPrefix        = "jobrec"
	jobLatestPrefix  = "jobdoc"
	generationPrefix = "docgen"
	entryPrefix      = "identry"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeJobKey generates a key for an ingestion job by UUID.
func makeJobKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", jobPrefix, id))
}

// makeLatestJobKey generates the key holding the latest job UUID for a
// document.
func makeLatestJobKey(docID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobLatestPrefix, docID))
}

// makeGenerationKey generates the key holding a document's live generation.
func makeGenerationKey(docID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", generationPrefix, docID))
}

// makeEntryKey generates a composite key for an index entry.
// Format: prefix:docID:generation:sequence, fixed-width BigEndian so
// iteration order is document, then generation, then sequence.
func makeEntryKey(docID core.ID, generation uint64, sequence int) []byte {
	prefix := entryPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], generation)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(sequence))
	return buf
}

// makeEntryDocPrefix generates the key prefix covering all entries of one
// document across generations.
func makeEntryDocPrefix(docID core.ID) []byte {
	prefix := entryPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}
