package search

import (
	"context"
	"fmt"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

// Lexical matches the query against resource metadata through the store.
type Lexical struct {
	Store storage.ResourceStore
}

// Search returns APPROVED resources matching query, newest first. An empty
// query returns every APPROVED resource. Store failures wrap ErrStore.
func (l *Lexical) Search(ctx context.Context, query string) ([]api.ScoredResource, error) {
	resources, err := l.Store.FindApproved(ctx, storage.Filter{Query: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	hits := make([]api.ScoredResource, 0, len(resources))
	for _, r := range resources {
		if !r.IsApproved() {
			continue
		}
		hits = append(hits, api.ScoredResource{Resource: r})
	}
	return hits, nil
}
