// Package api defines the core data types of the univault search service.
//
// It provides the persisted resource record, the public search result
// shape returned to clients, the JSON error body, and ID helpers.
//
// The package performs no I/O. JSON field names follow the camelCase wire
// format of the web application that consumes the search API.
//
// Core types:
//   - [Resource]: An uploaded academic file with its catalog metadata
//   - [ScoredResource]: A resource paired with a similarity score
//   - [SearchResult]: The public, null-coalesced search result
//   - [ErrorResponse]: Body written on terminal search failures
package api
