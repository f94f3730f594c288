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


// Package ai provides abstractions for the AI capabilities used in docbase.
//
// This package defines interfaces for document extraction, text embeddings
// and the reasoning capability behind the agent router. It follows the
// dependency inversion principle, allowing the ingestion pipeline, retrieval
// tool and router to depend on abstractions rather than concrete services.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Extractor: Converts raw documents into structured text with page layout
//   - Embedder: Generates vector embeddings from text
//   - Responder: Plans retrieval and synthesizes cited answers
//   - Provider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//   - extract: Built-in Extractor implementations (PDF, plain text)
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction. Mock constructors return concrete
// types to enable test assertions and behavior injection.
package ai
