package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

const (
	// DefaultMinSimilarity is the relevance floor; hits must score above it.
	DefaultMinSimilarity = 0.5

	// DefaultMaxSemanticResults caps the number of semantic hits.
	DefaultMaxSemanticResults = 50
)

// errNoProvider is returned when semantic search runs without a provider.
var errNoProvider = errors.New("no embedding provider configured")

// Semantic embeds the query and retrieves the closest APPROVED resources.
type Semantic struct {
	Provider      embedding.Provider
	Store         storage.ResourceStore
	MinSimilarity float64
	MaxResults    int

	// Timeout bounds the whole embedding call, retries included. Zero
	// means no extra bound.
	Timeout time.Duration
}

// Search embeds query and returns hits with similarity strictly above the
// floor, highest first, at most MaxResults of them.
//
// Embedding failures wrap ErrEmbedding and store failures wrap ErrStore.
// Search never downgrades to lexical matching itself.
func (s *Semantic) Search(ctx context.Context, query string) ([]api.ScoredResource, error) {
	if s.Provider == nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, errNoProvider)
	}

	vec, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, embedding.ErrNoVector)
	}

	floor, limit := s.limits()
	scored, err := s.Store.FindApprovedByVectorDistance(ctx, vec, limit, floor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	hits := scored[:0]
	for _, h := range scored {
		if h.Resource.IsApproved() && h.Similarity > floor {
			hits = append(hits, h)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// embed runs the provider under Timeout. Running out of that budget while
// the caller still waits is an embedding failure, not a cancellation.
func (s *Semantic) embed(parent context.Context, query string) ([]float32, error) {
	ctx := parent
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.Timeout)
		defer cancel()
	}
	vec, err := s.Provider.Embed(ctx, embedding.NormalizeText(query))
	if err != nil && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: no vector within %s", embedding.ErrTimeout, s.Timeout)
	}
	return vec, err
}

func (s *Semantic) limits() (float64, int) {
	floor := s.MinSimilarity
	if floor == 0 {
		floor = DefaultMinSimilarity
	}
	limit := s.MaxResults
	if limit <= 0 {
		limit = DefaultMaxSemanticResults
	}
	return floor, limit
}
