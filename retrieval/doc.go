// Package retrieval resolves natural-language queries against the vector
// index and groups the surviving chunks into per-document citations for
// answer synthesis.
package retrieval
