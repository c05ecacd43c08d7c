package search

import "strings"

// Mode is the strategy a request executes with.
type Mode int

const (
	ModeLexical Mode = iota
	ModeSemantic
)

// String returns the lower-case mode name used in headers and metrics.
func (m Mode) String() string {
	if m == ModeSemantic {
		return "semantic"
	}
	return "lexical"
}

// SortKey selects the ordering applied to hits.
type SortKey string

const (
	SortRelevance  SortKey = "relevance"
	SortDate       SortKey = "date"
	SortTitle      SortKey = "title"
	SortYear       SortKey = "year"
	SortSchool     SortKey = "school"
	SortCourse     SortKey = "course"
	SortSimilarity SortKey = "similarity"
)

// ParseSortKey returns the key named by s, or SortRelevance when s is
// empty or unknown. Matching is exact.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortRelevance, SortDate, SortTitle, SortYear, SortSchool, SortCourse, SortSimilarity:
		return k
	default:
		return SortRelevance
	}
}

// Request is a canonical search request.
type Request struct {
	Mode  Mode
	Query string
	Sort  SortKey
}

// Normalize builds a Request. An empty query always runs lexically, so an
// empty semantic request returns every APPROVED resource.
func Normalize(query string, semantic bool, sort string) Request {
	q := strings.TrimSpace(query)
	mode := ModeLexical
	if semantic && q != "" {
		mode = ModeSemantic
	}
	return Request{Mode: mode, Query: q, Sort: ParseSortKey(sort)}
}

// DefaultMaxPageSize caps Page.Limit.
const DefaultMaxPageSize = 100

// Page selects a window of the sorted results. Limit 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

// NormalizePage clamps pagination parameters: a non-positive limit means
// no limit, limits above DefaultMaxPageSize are capped, and a negative
// offset becomes 0.
func NormalizePage(limit, offset int) Page {
	return Page{Limit: limit, Offset: offset}.clamp(DefaultMaxPageSize)
}

func (p Page) clamp(maxLimit int) Page {
	if p.Limit < 0 {
		p.Limit = 0
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// window returns the window of items selected by p.
func window[T any](p Page, items []T) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
