// Package transport defines the handler interfaces and middleware chain for
// the univault HTTP transport layer.
//
// The transport layer bridges external clients (the web frontend, campus
// integrations, the MCP endpoint) and the search engine. It turns query
// strings into search requests, dispatches them, and serializes the
// formatted results back to the client.
//
// # Handler Interfaces
//
// Searcher is the contract between the transport layer and the search
// engine. HealthChecker lets readiness probes reach the resource store
// without the transport knowing which backend is configured.
//
// # Middleware
//
// The middleware chain wraps a Searcher with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. HTTP-level concerns
// (auth, metrics) are plain http.Handler middleware applied by the server.
package transport
