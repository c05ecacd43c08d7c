package search

import (
	"sort"

	"github.com/kautilyadevaraj/univault/pkg/api"
)

// SortHits orders hits in place by key. All orderings are stable, so equal
// keys keep the strategy's order and pagination stays deterministic.
//
// Relevance keeps the strategy's native order. Similarity only reorders in
// semantic mode; lexical hits carry no similarity.
func SortHits(hits []api.ScoredResource, key SortKey, mode Mode) {
	var less func(a, b *api.Resource, sa, sb float64) bool

	switch key {
	case SortDate:
		less = func(a, b *api.Resource, _, _ float64) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortTitle:
		less = func(a, b *api.Resource, _, _ float64) bool { return a.Title < b.Title }
	case SortYear:
		less = func(a, b *api.Resource, _, _ float64) bool {
			return intOrZero(a.YearOfCreation) > intOrZero(b.YearOfCreation)
		}
	case SortSchool:
		less = func(a, b *api.Resource, _, _ float64) bool { return stringOrEmpty(a.School) < stringOrEmpty(b.School) }
	case SortCourse:
		less = func(a, b *api.Resource, _, _ float64) bool {
			return stringOrEmpty(a.CourseName) < stringOrEmpty(b.CourseName)
		}
	case SortSimilarity:
		if mode != ModeSemantic {
			return
		}
		less = func(_, _ *api.Resource, sa, sb float64) bool { return sa > sb }
	default:
		return
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return less(&hits[i].Resource, &hits[j].Resource, hits[i].Similarity, hits[j].Similarity)
	})
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
