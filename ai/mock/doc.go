// Package mock provides test doubles for the ai package interfaces.
//
// The mocks generate deterministic output (hash-derived embedding vectors,
// keyword-driven retrieval decisions) so tests are reproducible without any
// external AI service. Behavior can be overridden per test via the exported
// function fields.
package mock
