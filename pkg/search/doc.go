// Package search implements the hybrid resource search engine.
//
// A raw request is canonicalized by [Normalize], which decides once whether
// the lexical or the semantic strategy runs. [Lexical] filters APPROVED
// resources by substring and tag membership through the store. [Semantic]
// embeds the query and retrieves resources above a similarity floor.
// Hits are ordered by [SortHits] and shaped into public results by [Format].
// [Engine] wires these together, applies the embedding fallback policy and
// paginates the result.
package search
