package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/observability"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

// Response is the outcome of one search.
type Response struct {
	// Mode is the strategy that produced Results.
	Mode Mode

	// FellBack is set when a semantic request was served lexically
	// because the query could not be embedded.
	FellBack bool

	// Total is the number of matches before pagination.
	Total int

	Results []api.SearchResult
}

// Engine orchestrates the search strategies.
type Engine struct {
	lexical  *Lexical
	semantic *Semantic
	cfg      Config
}

// New creates an Engine. The store must not be nil. A nil provider leaves
// semantic search unavailable: semantic requests fail with ErrEmbedding
// unless FallbackToLexical is set.
func New(store storage.ResourceStore, provider embedding.Provider, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("search: store must not be nil")
	}
	return &Engine{
		lexical: &Lexical{Store: store},
		semantic: &Semantic{
			Provider:      provider,
			Store:         store,
			MinSimilarity: cfg.MinSimilarity,
			MaxResults:    cfg.MaxSemanticResults,
			Timeout:       cfg.EmbeddingTimeout,
		},
		cfg: cfg,
	}, nil
}

// Search executes req and returns the requested page of results.
//
// Errors wrap ErrEmbedding or ErrStore. The mode chosen by Normalize is
// never re-evaluated here; the only deviation is the configured fallback.
func (e *Engine) Search(ctx context.Context, req Request, page Page) (*Response, error) {
	start := time.Now()
	page = page.clamp(e.cfg.maxPageSize())

	resp := &Response{Mode: req.Mode}
	hits, err := e.run(ctx, req)

	if err != nil && errors.Is(err, ErrEmbedding) && e.cfg.FallbackToLexical && ctx.Err() == nil {
		e.cfg.logger().Warn("semantic search failed, falling back to lexical",
			"query_len", len(req.Query), "error", err)
		observability.SearchFallbacksTotal.Inc()
		resp.Mode = ModeLexical
		resp.FellBack = true
		hits, err = e.lexical.Search(ctx, req.Query)
	}

	observability.SearchDuration.WithLabelValues(resp.Mode.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.SearchQueriesTotal.WithLabelValues(resp.Mode.String(), outcome(err)).Inc()
		return nil, err
	}
	observability.SearchQueriesTotal.WithLabelValues(resp.Mode.String(), "ok").Inc()
	observability.SearchResults.WithLabelValues(resp.Mode.String()).Observe(float64(len(hits)))

	SortHits(hits, req.Sort, resp.Mode)

	resp.Total = len(hits)
	resp.Results = FormatAll(window(page, hits), resp.Mode == ModeSemantic)

	debug.Log("search", "completed",
		"mode", resp.Mode.String(), "sort", string(req.Sort), "total", resp.Total,
		"returned", len(resp.Results), "fell_back", resp.FellBack)

	return resp, nil
}

func (e *Engine) run(ctx context.Context, req Request) ([]api.ScoredResource, error) {
	if req.Mode == ModeSemantic {
		return e.semantic.Search(ctx, req.Query)
	}
	return e.lexical.Search(ctx, req.Query)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrEmbedding):
		return "embedding_error"
	case errors.Is(err, ErrStore):
		return "store_error"
	default:
		return "error"
	}
}
