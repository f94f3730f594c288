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

import (
	"fmt"
	"path"
	"strings"
)

// SanitizeFilename reduces an uploaded filename to a safe, stable key.
// Path components are stripped and characters outside [a-zA-Z0-9._-] are
// replaced with underscores. Returns "" for names with no usable characters.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if strings.Trim(cleaned, "_") == "" {
		return ""
	}
	return cleaned
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Filename must not be empty
//   - SizeBytes must not be negative
//
// NOT validated:
//   - SourceURL (optional, depends on deployment)
//   - Id (derived from Filename by the caller)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if doc.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidDocument, doc.SizeBytes)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Sequence must not be negative
//   - Page range must be ordered
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.Sequence < 0 {
		return fmt.Errorf("%w: negative sequence %d", ErrInvalidChunk, chunk.Sequence)
	}

	if chunk.PageEnd < chunk.PageStart {
		return fmt.Errorf("%w: page range %d-%d", ErrInvalidChunk, chunk.PageStart, chunk.PageEnd)
	}

	return nil
}
