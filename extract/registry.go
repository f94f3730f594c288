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

package extract

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/core"
)

// Registry maps filename extensions to extractors.
type Registry struct {
	extractors map[string]ai.Extractor
}

// NewRegistry creates a registry with the default extractors registered:
// PDF for .pdf, plain text for .txt and .md.
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]ai.Extractor)}
	r.Register(".pdf", NewPDFExtractor())
	plain := NewPlainTextExtractor()
	r.Register(".txt", plain)
	r.Register(".md", plain)
	return r
}

// Register binds an extractor to a filename extension. The extension must
// include the leading dot and is matched case-insensitively.
func (r *Registry) Register(ext string, extractor ai.Extractor) {
	r.extractors[strings.ToLower(ext)] = extractor
}

// ForFilename returns the extractor for the file's extension, or
// core.ErrUnsupportedFormat when no extractor is registered.
func (r *Registry) ForFilename(filename string) (ai.Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	extractor, ok := r.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, ext)
	}
	return extractor, nil
}

// Supported reports whether the filename's extension has a registered
// extractor.
func (r *Registry) Supported(filename string) bool {
	_, err := r.ForFilename(filename)
	return err == nil
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
