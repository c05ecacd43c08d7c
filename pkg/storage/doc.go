// Package storage defines the resource store consumed by the search engine,
// together with sentinel errors shared by the adapters.
//
// Adapters live in subpackages: postgres (pgx with the pgvector extension)
// and memory (for tests and local development).
package storage
