// Package embedding turns text into dense vectors for semantic search.
//
// [Provider] is the collaborator interface consumed by the search engine and
// the indexer. [OpenAIClient] talks to any OpenAI-compatible /v1/embeddings
// endpoint and retries transient failures with exponential backoff. [Cached]
// wraps a Provider with an LRU cache keyed by the content hash of the
// normalized input.
//
// All errors returned by this package wrap one of [ErrEmptyText],
// [ErrNoVector] or [ErrProvider], or a context error.
package embedding
