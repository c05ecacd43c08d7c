package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/kautilyadevaraj/univault/pkg/search"
)

// Recovery returns middleware that catches panics in the searcher and
// converts them to ErrInternal. The server continues to accept new
// requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Searcher) Searcher {
		return SearcherFunc(func(ctx context.Context, req search.Request, page search.Page) (resp *search.Response, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("search panicked",
						"request_id", RequestIDFromContext(ctx),
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					resp, retErr = nil, fmt.Errorf("%w: %v", ErrInternal, r)
				}
			}()
			return next.Search(ctx, req, page)
		})
	}
}
