package transport

import (
	"context"

	"github.com/google/uuid"
	"github.com/kautilyadevaraj/univault/pkg/search"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID returns a copy of ctx carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID makes sure every search has a request ID. The HTTP adapter
// usually supplies one from X-Request-ID; MCP calls get a fresh UUID here.
func RequestID() Middleware {
	return func(next Searcher) Searcher {
		return SearcherFunc(func(ctx context.Context, req search.Request, page search.Page) (*search.Response, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.Search(ctx, req, page)
		})
	}
}

// NewRequestID returns a random UUID string.
func NewRequestID() string {
	return uuid.NewString()
}
