// Package server exposes the knowledge base over HTTP: document upload,
// ingestion status, question answering and file listing.
package server
