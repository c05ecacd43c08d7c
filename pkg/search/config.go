package search

import (
	"log/slog"
	"time"
)

// Config holds the engine's deployment settings.
type Config struct {
	// MinSimilarity is the semantic relevance floor. Zero selects
	// DefaultMinSimilarity.
	MinSimilarity float64

	// MaxSemanticResults caps semantic hits. Zero selects
	// DefaultMaxSemanticResults.
	MaxSemanticResults int

	// FallbackToLexical runs the lexical strategy when the query cannot be
	// embedded. Off by default: embedding failures are terminal.
	FallbackToLexical bool

	// MaxPageSize caps Page.Limit (default 100).
	MaxPageSize int

	// EmbeddingTimeout bounds the embedding call of one request. Zero
	// leaves the caller's deadline in charge.
	EmbeddingTimeout time.Duration

	// Logger receives fallback warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) maxPageSize() int {
	if c.MaxPageSize <= 0 {
		return DefaultMaxPageSize
	}
	return c.MaxPageSize
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
