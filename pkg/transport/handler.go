package transport

import (
	"context"

	"github.com/kautilyadevaraj/univault/pkg/search"
)

// Searcher executes a normalized search request and returns one page of
// formatted results. *search.Engine is the production implementation.
type Searcher interface {
	Search(ctx context.Context, req search.Request, page search.Page) (*search.Response, error)
}

// SearcherFunc is an adapter that allows using an ordinary function as a
// Searcher.
type SearcherFunc func(ctx context.Context, req search.Request, page search.Page) (*search.Response, error)

// Search calls f(ctx, req, page).
func (f SearcherFunc) Search(ctx context.Context, req search.Request, page search.Page) (*search.Response, error) {
	return f(ctx, req, page)
}

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) error

// HealthCheck calls f(ctx).
func (f HealthCheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

var _ Searcher = (*search.Engine)(nil)
