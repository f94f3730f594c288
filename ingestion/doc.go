// Package ingestion drives uploaded documents through extraction,
// chunking, embedding and index commit on a worker pool.
//
// Each submission creates a tracked job that walks a fixed lifecycle:
// queued, extracting, chunking, embedding, indexing, ready. Any stage
// failure terminates the job as failed with a detail message. A new
// submission for a document that already has a run in flight cancels the
// old run and supersedes it.
//
// The Tracker exposes per-document status snapshots without touching
// storage, so status polls stay cheap while workers run.
package ingestion
