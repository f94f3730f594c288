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


package core

import "errors"

// Ingestion and query failure kinds
var (
	// ErrDocumentTooLarge indicates a document exceeds the size or page ceiling.
	// Raised before extraction begins; the upload is rejected outright.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrUnsupportedFormat indicates no extractor is registered for the file type.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractionFailed indicates the document extractor could not produce text.
	ErrExtractionFailed = errors.New("document extraction failed")

	// ErrEmbeddingUnavailable indicates the embedding backend failed.
	// Transient: callers retry with backoff before giving up.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrIndexCommitFailed indicates the vector index rejected a generation commit.
	// Transient: retried, then fatal for the job.
	ErrIndexCommitFailed = errors.New("index commit failed")

	// ErrRetrievalUnavailable indicates the retrieval path failed after retries.
	// Surfaced to query callers as a degraded answer, never as a raw backend error.
	ErrRetrievalUnavailable = errors.New("retrieval backend unavailable")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyFilename indicates a document filename is empty after sanitization.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunkText indicates a chunk's text content is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrInvalidTransition indicates a disallowed job state transition.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrInvalidMaxAttempts indicates a retry was configured with no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)
