package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/auth"
	"github.com/kautilyadevaraj/univault/pkg/search"
)

// Logging returns middleware that emits one structured log entry per
// search: request ID, caller subject, requested and executed mode, sort key, result
// count, and duration. Cancelled searches are logged at INFO since the
// client simply went away.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Searcher) Searcher {
		return SearcherFunc(func(ctx context.Context, req search.Request, page search.Page) (*search.Response, error) {
			start := time.Now()

			resp, err := next.Search(ctx, req, page)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("subject", auth.SubjectFromContext(ctx)),
				slog.String("mode", req.Mode.String()),
				slog.String("sort", string(req.Sort)),
				slog.Int("query_len", len(req.Query)),
				slog.Duration("duration", time.Since(start)),
			}

			switch {
			case err == nil:
				attrs = append(attrs,
					slog.String("served_by", resp.Mode.String()),
					slog.Bool("fell_back", resp.FellBack),
					slog.Int("total", resp.Total),
					slog.Int("returned", len(resp.Results)),
				)
				logger.LogAttrs(ctx, slog.LevelInfo, "search completed", attrs...)
			case errors.Is(err, context.Canceled):
				logger.LogAttrs(ctx, slog.LevelInfo, "search cancelled by client", attrs...)
			default:
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "search failed", attrs...)
			}

			return resp, err
		})
	}
}
