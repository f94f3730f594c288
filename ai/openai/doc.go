// Package openai provides ai.Provider implementations backed by any
// OpenAI-compatible API endpoint, including Ollama, vLLM, and OpenAI itself.
//
// The embedder generates vector embeddings for chunk and query text. The
// responder drives the question-answering flow in two calls: a routing call
// that may invoke the knowledge-base search tool, and a synthesis call that
// composes a cited answer from retrieved passages.
package openai
