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

package docbase

import (
	"log/slog"

	"github.com/poiesic/docbase/agent"
	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/ai/openai"
	"github.com/poiesic/docbase/chunker"
	"github.com/poiesic/docbase/extract"
	"github.com/poiesic/docbase/ingestion"
	"github.com/poiesic/docbase/retrieval"
	"github.com/poiesic/docbase/storage"
	"github.com/poiesic/docbase/storage/badger"
)

// Database wires storage, the AI provider, the ingestion pipeline and the
// question-answering router into one handle.
type Database struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	jobs      storage.JobRepository
	index     storage.IndexRepository
	provider  ai.Provider
	pipeline  *ingestion.Pipeline
	retriever *retrieval.Retriever
	router    *agent.Router
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiOpts        []ai.ConfigOption
	provider      ai.Provider
	inMemory      bool
	chunkerConfig chunker.Config
	pipelineOpts  []ingestion.Option
	retrieverOpts []retrieval.Option
}

// WithAIOptions passes configuration to the OpenAI-compatible provider.
// Ignored when WithProvider is set.
func WithAIOptions(opts ...ai.ConfigOption) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiOpts = append(o.aiOpts, opts...)
	}
}

// WithProvider replaces the default OpenAI-compatible provider, for tests
// or alternative backends.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory opens the storage backend in memory instead of on disk.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithChunkerConfig overrides the default chunk sizing.
func WithChunkerConfig(config chunker.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.chunkerConfig = config
	}
}

// WithPipelineOptions passes configuration to the ingestion pipeline.
func WithPipelineOptions(opts ...ingestion.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithRetrieverOptions passes configuration to the retriever.
func WithRetrieverOptions(opts ...retrieval.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.retrieverOpts = append(o.retrieverOpts, opts...)
	}
}

// NewDatabase opens the knowledge base at filePath and wires up all
// components.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		chunkerConfig: chunker.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents := badger.NewDocumentRepository(backend)
	jobs := badger.NewJobRepository(backend)
	index := badger.NewIndexRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiOpts...)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	pipeline, err := ingestion.NewPipeline(
		documents, jobs, index,
		provider.Embedder(),
		extract.NewRegistry(),
		chunker.New(options.chunkerConfig),
		ingestion.NewTracker(),
		options.pipelineOpts...,
	)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	retriever, err := retrieval.NewRetriever(index, provider.Embedder(), options.retrieverOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	router, err := agent.NewRouter(retriever, provider.Responder())
	if err != nil {
		pipeline.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		documents: documents,
		jobs:      jobs,
		index:     index,
		provider:  provider,
		pipeline:  pipeline,
		retriever: retriever,
		router:    router,
		logger:    slog.Default(),
	}, nil
}

// Close releases the pipeline, provider and storage backend.
func (db *Database) Close() error {
	db.pipeline.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// DocumentRepository returns the document store.
func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documents
}

// JobRepository returns the ingestion job store.
func (db *Database) JobRepository() storage.JobRepository {
	return db.jobs
}

// IndexRepository returns the vector index.
func (db *Database) IndexRepository() storage.IndexRepository {
	return db.index
}

// Pipeline returns the ingestion pipeline.
func (db *Database) Pipeline() *ingestion.Pipeline {
	return db.pipeline
}

// Retriever returns the knowledge base retriever.
func (db *Database) Retriever() *retrieval.Retriever {
	return db.retriever
}

// Router returns the question-answering router.
func (db *Database) Router() *agent.Router {
	return db.router
}
