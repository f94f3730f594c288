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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docbase/ai"
	"github.com/poiesic/docbase/chunker"
	"github.com/poiesic/docbase/core"
	"github.com/poiesic/docbase/extract"
	"github.com/poiesic/docbase/storage"
)

const (
	// DefaultMaxDocumentBytes caps upload size.
	DefaultMaxDocumentBytes = 32 << 20

	// DefaultMaxPages caps PDF length; longer documents are rejected at
	// submission.
	DefaultMaxPages = 30

	// DefaultEmbedBatchSize is the number of chunk texts sent to the
	// embedder per request.
	DefaultEmbedBatchSize = 16

	// Retry policy for embedding and index commits.
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second

	supersededDetail = "superseded by a newer upload"
)

// Upload is a document submission.
type Upload struct {
	Filename   string
	SessionTag string
	SourceURL  string
	Data       []byte
}

// Pipeline drives documents through extraction, chunking, embedding and
// indexing on a worker pool. Each submission gets a tracked job; a newer
// submission for the same document cancels the one in flight.
type Pipeline struct {
	documents  storage.DocumentRepository
	jobs       storage.JobRepository
	index      storage.IndexRepository
	embedder   ai.Embedder
	extractors *extract.Registry
	splitter   *chunker.Chunker
	tracker    StatusSink
	pool       *ants.Pool
	logger     *slog.Logger

	maxBytes    int64
	maxPages    int
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration

	mu       sync.Mutex
	inflight map[core.ID]*inflightRun
	lastGen  map[core.ID]uint64
}

type inflightRun struct {
	jobID  string
	cancel context.CancelFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent ingestion runs.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMaxDocumentBytes sets the upload size ceiling.
func WithMaxDocumentBytes(n int64) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.maxBytes = n
		}
		return nil
	}
}

// WithMaxPages sets the PDF page ceiling.
func WithMaxPages(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.maxPages = n
		}
		return nil
	}
}

// WithEmbedBatchSize sets the number of texts embedded per request.
func WithEmbedBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n > 0 {
			p.batchSize = n
		}
		return nil
	}
}

// WithRetryPolicy sets the retry attempts and base backoff delay used for
// embedding and index commits.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts > 0 {
			p.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			p.baseDelay = baseDelay
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	jobs storage.JobRepository,
	index storage.IndexRepository,
	embedder ai.Embedder,
	extractors *extract.Registry,
	splitter *chunker.Chunker,
	tracker StatusSink,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if extractors == nil {
		return nil, ErrRegistryRequired
	}
	if splitter == nil {
		splitter = chunker.New(chunker.DefaultConfig())
	}
	if tracker == nil {
		tracker = NewTracker()
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:   documents,
		jobs:        jobs,
		index:       index,
		embedder:    embedder,
		extractors:  extractors,
		splitter:    splitter,
		tracker:     tracker,
		pool:        pool,
		logger:      slog.Default(),
		maxBytes:    DefaultMaxDocumentBytes,
		maxPages:    DefaultMaxPages,
		batchSize:   DefaultEmbedBatchSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		inflight:    make(map[core.ID]*inflightRun),
		lastGen:     make(map[core.ID]uint64),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Tracker returns the status sink fed by this pipeline.
func (p *Pipeline) Tracker() StatusSink {
	return p.tracker
}

// Submit validates an upload, records the document and a queued job, and
// schedules the ingestion run. Size and page ceilings are enforced here so
// oversized documents fail fast with core.ErrDocumentTooLarge instead of
// occupying a worker. A submission for a document with a run already in
// flight supersedes it: the old run is cancelled and marked failed.
func (p *Pipeline) Submit(ctx context.Context, upload Upload) (*core.IngestionJob, error) {
	name := core.SanitizeFilename(upload.Filename)
	if name == "" {
		return nil, core.ErrEmptyFilename
	}
	if len(upload.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if !p.extractors.Supported(name) {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, filepath.Ext(name))
	}
	if int64(len(upload.Data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrDocumentTooLarge, len(upload.Data), p.maxBytes)
	}

	pageCount := 0
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		var err error
		pageCount, err = extract.PDFPageCount(upload.Data)
		if err != nil {
			return nil, err
		}
		if pageCount > p.maxPages {
			return nil, fmt.Errorf("%w: %d pages exceeds limit of %d", core.ErrDocumentTooLarge, pageCount, p.maxPages)
		}
	}

	docID := core.DocumentID(name)
	sourceURL := upload.SourceURL
	if sourceURL == "" {
		sourceURL = "/files/" + name
	}

	doc := &core.Document{
		Id:           docID,
		Filename:     name,
		OriginalName: upload.Filename,
		SessionTag:   upload.SessionTag,
		SizeBytes:    int64(len(upload.Data)),
		SourceURL:    sourceURL,
		UploadedAt:   time.Now().UTC(),
	}
	if err := p.documents.PutDocument(ctx, doc); err != nil {
		return nil, err
	}

	generation, err := p.nextGeneration(ctx, docID)
	if err != nil {
		return nil, err
	}

	job := &core.IngestionJob{
		Id:         uuid.NewString(),
		DocumentId: docID,
		Generation: generation,
		State:      core.JobStateQueued,
		PageCount:  pageCount,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := p.persist(ctx, job); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.supersede(docID, job.Id, cancel)

	// The worker owns and mutates job from here on; callers get a
	// detached copy taken before the run can start.
	queued := *job

	data := upload.Data
	submitErr := p.pool.Submit(func() {
		defer p.clearInflight(docID, job.Id)
		p.run(runCtx, job, doc, data)
	})
	if submitErr != nil {
		cancel()
		p.clearInflight(docID, job.Id)
		p.fail(context.Background(), job, submitErr)
		return nil, submitErr
	}

	p.logger.Info("ingestion queued",
		"job_id", job.Id, "document", name, "generation", generation, "bytes", len(data))
	return &queued, nil
}

// Status reports the latest ingestion state for a document, consulting the
// in-memory tracker first and falling back to the job store after a
// restart.
func (p *Pipeline) Status(ctx context.Context, docID core.ID) (Snapshot, error) {
	snap := p.tracker.Status(docID)
	if snap.State != core.JobStateUnknown {
		return snap, nil
	}

	job, err := p.jobs.LatestJobForDocument(ctx, docID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return snap, nil
		}
		return snap, err
	}

	p.tracker.Observe(job)
	return p.tracker.Status(docID), nil
}

// Release cancels in-flight runs and releases the worker pool. The
// pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	for _, run := range p.inflight {
		run.cancel()
	}
	p.inflight = make(map[core.ID]*inflightRun)
	p.mu.Unlock()

	if p.pool != nil {
		p.pool.Release()
	}
}

// nextGeneration picks a generation strictly above both the committed one
// and any generation handed to a still-running job for the document.
func (p *Pipeline) nextGeneration(ctx context.Context, docID core.ID) (uint64, error) {
	current, err := p.index.CurrentGeneration(ctx, docID)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	generation := current + 1
	if last := p.lastGen[docID]; last >= generation {
		generation = last + 1
	}
	p.lastGen[docID] = generation
	return generation, nil
}

// supersede cancels any in-flight run for the document and installs the
// new run's cancel function.
func (p *Pipeline) supersede(docID core.ID, jobID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.inflight[docID]; ok {
		p.logger.Info("superseding in-flight ingestion",
			"document_id", docID, "old_job_id", prev.jobID, "new_job_id", jobID)
		prev.cancel()
	}
	p.inflight[docID] = &inflightRun{jobID: jobID, cancel: cancel}
}

func (p *Pipeline) clearInflight(docID core.ID, jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if run, ok := p.inflight[docID]; ok && run.jobID == jobID {
		delete(p.inflight, docID)
	}
}

// run drives one job through the ingestion stages. Failures mark the job
// failed with a detail message; cancellation marks it superseded.
func (p *Pipeline) run(ctx context.Context, job *core.IngestionJob, doc *core.Document, data []byte) {
	job.StartedAt = time.Now().UTC()

	// Extract
	if !p.advance(ctx, job, core.JobStateExtracting) {
		return
	}
	extractor, err := p.extractors.ForFilename(doc.Filename)
	if err != nil {
		p.fail(ctx, job, err)
		return
	}
	extracted, err := extractor.Extract(ctx, doc.Filename, data)
	if err != nil {
		p.fail(ctx, job, err)
		return
	}
	if job.PageCount == 0 {
		job.PageCount = len(extracted.Pages)
	}

	// Chunk
	if !p.advance(ctx, job, core.JobStateChunking) {
		return
	}
	candidates := p.splitter.Chunk(extracted.Text, extracted.Pages)
	chunks := make([]*core.Chunk, len(candidates))
	for i, candidate := range candidates {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(doc.Id, job.Generation, i),
			DocumentId: doc.Id,
			Generation: job.Generation,
			Sequence:   i,
			Text:       candidate.Text,
			CharLen:    candidate.End - candidate.Start,
			PageStart:  candidate.PageStart,
			PageEnd:    candidate.PageEnd,
		}
		if err := core.ValidateChunk(chunks[i]); err != nil {
			p.fail(ctx, job, err)
			return
		}
	}

	entries := make([]*core.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = &core.IndexEntry{
			ChunkId:      chunk.Id,
			DocumentId:   chunk.DocumentId,
			Generation:   chunk.Generation,
			Sequence:     chunk.Sequence,
			Text:         chunk.Text,
			DocumentName: doc.Filename,
			SourceURL:    doc.SourceURL,
			PageStart:    chunk.PageStart,
			PageEnd:      chunk.PageEnd,
		}
	}
	job.ChunkCount = len(entries)

	// Embed
	if !p.advance(ctx, job, core.JobStateEmbedding) {
		return
	}
	if err := p.embedEntries(ctx, entries); err != nil {
		p.fail(ctx, job, err)
		return
	}

	// Index
	if !p.advance(ctx, job, core.JobStateIndexing) {
		return
	}
	commit := func() error {
		return p.index.UpsertGeneration(ctx, doc.Id, job.Generation, entries)
	}
	if err := core.RetryWithBackoff(ctx, commit, p.maxAttempts, p.baseDelay); err != nil {
		p.fail(ctx, job, fmt.Errorf("%w: %w", core.ErrIndexCommitFailed, err))
		return
	}

	job.FinishedAt = time.Now().UTC()
	if !p.advance(ctx, job, core.JobStateReady) {
		return
	}

	p.logger.Info("ingestion complete",
		"job_id", job.Id, "document", doc.Filename,
		"generation", job.Generation, "pages", job.PageCount, "chunks", job.ChunkCount)
}

// embedEntries fills entry vectors in batches, retrying each batch as a
// unit. Vectors are normalized so searches can use the dot product.
func (p *Pipeline) embedEntries(ctx context.Context, entries []*core.IndexEntry) error {
	for start := 0; start < len(entries); start += p.batchSize {
		end := start + p.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		texts := make([]string, len(batch))
		for i, entry := range batch {
			texts[i] = entry.Text
		}

		var vectors [][]float32
		embed := func() error {
			var err error
			vectors, err = p.embedder.EmbedTexts(ctx, texts)
			return err
		}
		if err := core.RetryWithBackoff(ctx, embed, p.maxAttempts, p.baseDelay); err != nil {
			return err
		}

		for i, vector := range vectors {
			batch[i].Vector = core.NormalizeVector(vector)
		}
	}
	return nil
}

// advance moves the job to the next state and persists it. Returns false
// when the run should stop, either because the context was cancelled or
// the transition was rejected.
func (p *Pipeline) advance(ctx context.Context, job *core.IngestionJob, next core.JobState) bool {
	if err := ctx.Err(); err != nil {
		p.markSuperseded(job)
		return false
	}
	if err := core.Transition(job, next); err != nil {
		p.logger.Error("rejected job state transition", "job_id", job.Id, "err", err)
		return false
	}

	if err := p.persist(ctx, job); err != nil {
		p.logger.Error("failed to persist job state",
			"job_id", job.Id, "state", next, "err", err)
	}
	return true
}

func (p *Pipeline) fail(ctx context.Context, job *core.IngestionJob, cause error) {
	if errors.Is(cause, context.Canceled) {
		p.markSuperseded(job)
		return
	}

	job.State = core.JobStateFailed
	job.Detail = cause.Error()
	job.FinishedAt = time.Now().UTC()
	if err := p.persist(context.WithoutCancel(ctx), job); err != nil {
		p.logger.Error("failed to persist job failure", "job_id", job.Id, "err", err)
	}

	p.logger.Warn("ingestion failed", "job_id", job.Id, "document_id", job.DocumentId, "err", cause)
}

func (p *Pipeline) markSuperseded(job *core.IngestionJob) {
	job.State = core.JobStateFailed
	job.Detail = supersededDetail
	job.FinishedAt = time.Now().UTC()
	if err := p.persist(context.Background(), job); err != nil {
		p.logger.Error("failed to persist superseded job", "job_id", job.Id, "err", err)
	}
}

func (p *Pipeline) persist(ctx context.Context, job *core.IngestionJob) error {
	if err := p.jobs.PutJob(ctx, job); err != nil {
		return err
	}
	p.tracker.Observe(job)
	return nil
}
