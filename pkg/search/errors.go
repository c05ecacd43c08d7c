package search

import "errors"

var (
	// ErrEmbedding reports that the query could not be embedded. Callers
	// may retry or fall back; the strategy itself never does.
	ErrEmbedding = errors.New("search: embedding failed")

	// ErrStore reports that the resource store query failed. It is always
	// terminal for the request.
	ErrStore = errors.New("search: store query failed")
)
