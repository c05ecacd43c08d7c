// Package indexer generates and refreshes resource embeddings.
//
// Embeddings are derived from embedding.ResourceText. A resource edited
// after its embedding was generated keeps the old vector until Refresh or
// Backfill with All runs; search tolerates that staleness.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/observability"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

// DefaultConcurrency is used when BackfillOptions.Concurrency is not set.
const DefaultConcurrency = 4

// Store is the subset of storage.Store the indexer needs.
type Store interface {
	GetResource(ctx context.Context, id string) (*api.Resource, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	ListMissingEmbeddings(ctx context.Context, all bool) ([]string, error)
}

// Indexer embeds resources and writes the vectors back to the store.
type Indexer struct {
	store    Store
	provider embedding.Provider
	logger   *slog.Logger
}

// New creates an Indexer.
func New(store Store, provider embedding.Provider, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, provider: provider, logger: logger}
}

// Refresh regenerates the embedding of one resource.
func (ix *Indexer) Refresh(ctx context.Context, id string) error {
	r, err := ix.store.GetResource(ctx, id)
	if err != nil {
		return fmt.Errorf("loading resource %s: %w", id, err)
	}

	vec, err := ix.provider.Embed(ctx, embedding.ResourceText(*r))
	if err != nil {
		observability.IndexedResourcesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("embedding resource %s: %w", id, err)
	}

	if err := ix.store.UpdateEmbedding(ctx, id, vec); err != nil {
		observability.IndexedResourcesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("storing embedding for %s: %w", id, err)
	}

	observability.IndexedResourcesTotal.WithLabelValues("ok").Inc()
	debug.Log("indexer", "refreshed", "id", id, "dims", len(vec))
	return nil
}

// BackfillOptions controls a backfill run.
type BackfillOptions struct {
	// Concurrency bounds parallel embedding calls.
	Concurrency int

	// All re-embeds every APPROVED resource, not only those without an
	// embedding.
	All bool
}

// BackfillStats summarizes a backfill run.
type BackfillStats struct {
	Total    int
	Indexed  int
	Failed   int
	Duration time.Duration
}

// Backfill embeds APPROVED resources. A resource that cannot be embedded
// is logged and counted but does not stop the run; it simply stays
// without an embedding. Only listing failures and cancellation abort.
func (ix *Indexer) Backfill(ctx context.Context, opts BackfillOptions) (*BackfillStats, error) {
	start := time.Now()

	ids, err := ix.store.ListMissingEmbeddings(ctx, opts.All)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var indexed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := ix.Refresh(gctx, id)
			switch {
			case err == nil:
				indexed.Add(1)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				failed.Add(1)
				ix.logger.Warn("failed to index resource", "id", id, "error", err)
			}
			return nil
		})
	}

	waitErr := g.Wait()
	stats := &BackfillStats{
		Total:    len(ids),
		Indexed:  int(indexed.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		return stats, fmt.Errorf("backfill interrupted: %w", waitErr)
	}

	ix.logger.Info("backfill complete",
		"total", stats.Total, "indexed", stats.Indexed, "failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}

// Ensure storage.Store satisfies Store.
var _ Store = (storage.Store)(nil)
