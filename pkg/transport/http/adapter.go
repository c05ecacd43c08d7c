package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/observability"
	"github.com/kautilyadevaraj/univault/pkg/search"
	"github.com/kautilyadevaraj/univault/pkg/transport"
)

// Response headers set by the search endpoint.
const (
	HeaderTotalCount   = "X-Total-Count"
	HeaderSearchMode   = "X-Search-Mode"
	HeaderFallback     = "X-Search-Fallback"
	HeaderRequestID    = "X-Request-ID"
	readinessTimeout   = 2 * time.Second
	defaultMaxQueryLen = 512
)

// Adapter serves the search API over HTTP.
// It parses query strings, dispatches to the Searcher, and serializes results.
type Adapter struct {
	searcher transport.Searcher
	health   transport.HealthChecker // nil: readiness always succeeds
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// MaxQueryLength bounds the q parameter, in characters.
	MaxQueryLength int
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueryLength: defaultMaxQueryLen,
	}
}

// NewAdapter creates an HTTP adapter for the given Searcher. The
// HealthChecker backs /readyz and may be nil.
// Middleware is applied to the Searcher in the given order.
func NewAdapter(searcher transport.Searcher, health transport.HealthChecker, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		searcher = transport.Chain(middlewares...)(searcher)
	}

	a := &Adapter{
		searcher: searcher,
		health:   health,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.Mount("GET /api/search", http.HandlerFunc(a.handleSearch))
	a.Mount("GET /healthz", http.HandlerFunc(a.handleHealthz))
	a.Mount("GET /readyz", http.HandlerFunc(a.handleReadyz))

	return a
}

// Mount registers an additional handler (metrics, MCP) on the adapter's mux.
// Every route is tagged for the request metrics.
func (a *Adapter) Mount(pattern string, h http.Handler) {
	a.mux.Handle(pattern, observability.TagRoute(h))
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header into the
// request context, generating one when the client did not send it, and
// echoes it on the response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = transport.NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleSearch handles GET /api/search.
func (a *Adapter) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, page, msg := a.parseSearchQuery(r)
	if msg != "" {
		transport.WriteErrorResponse(w, msg, http.StatusBadRequest)
		return
	}

	resp, err := a.searcher.Search(r.Context(), req, page)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// The client is gone; record the status for metrics only.
			w.WriteHeader(transport.StatusClientClosedRequest)
			return
		}
		transport.WriteError(w, err)
		return
	}

	results := resp.Results
	if results == nil {
		results = []api.SearchResult{}
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set(HeaderTotalCount, strconv.Itoa(resp.Total))
	h.Set(HeaderSearchMode, resp.Mode.String())
	if resp.FellBack {
		h.Set(HeaderFallback, search.ModeLexical.String())
	}
	if err := json.NewEncoder(w).Encode(results); err != nil {
		slog.Debug("writing search response failed", "error", err)
	}
}

// parseSearchQuery extracts the search parameters from the query string.
// A non-empty message means the request is malformed.
//
// semantic is parsed with strconv.ParseBool; anything unparsable is false.
// Unknown sort keys fall back to relevance. limit and offset must be
// non-negative integers when present.
func (a *Adapter) parseSearchQuery(r *http.Request) (search.Request, search.Page, string) {
	q := r.URL.Query()

	query := q.Get("q")
	if a.config.MaxQueryLength > 0 && utf8.RuneCountInString(query) > a.config.MaxQueryLength {
		return search.Request{}, search.Page{}, "q must be at most " + strconv.Itoa(a.config.MaxQueryLength) + " characters"
	}

	semantic, _ := strconv.ParseBool(q.Get("semantic"))
	req := search.Normalize(query, semantic, q.Get("sort"))

	var page search.Page
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &page.Limit}, {"offset", &page.Offset}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return search.Request{}, search.Page{}, p.name + " must be a non-negative integer"
		}
		*p.dst = n
	}

	return req, page, ""
}

// handleHealthz reports liveness.
func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// handleReadyz reports readiness by checking the resource store.
func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := a.health.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			transport.WriteErrorResponse(w, "resource store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
