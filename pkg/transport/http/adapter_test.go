package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/embedding/embeddingtest"
	"github.com/kautilyadevaraj/univault/pkg/search"
	"github.com/kautilyadevaraj/univault/pkg/storage"
	"github.com/kautilyadevaraj/univault/pkg/storage/memory"
	"github.com/kautilyadevaraj/univault/pkg/transport"
)

var created = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

// unitVector returns a 2-d vector with the given cosine similarity to [1, 0].
func unitVector(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

type fixture struct {
	store    *memory.Store
	embedder *embeddingtest.Server
	srv      *httptest.Server
}

// newFixture wires the real engine to an in-memory store and the
// deterministic embedding server.
func newFixture(t *testing.T, cfg search.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	if err := store.SaveUser(ctx, api.User{ID: "u-1", Username: "priya"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	resources := []struct {
		r   api.Resource
		sim float64
	}{
		{api.Resource{
			ID: "r-graphs", Title: "Graph Theory Notes", Tags: []string{"math"},
			School: api.StringPtr("Engineering"), CourseYear: api.IntPtr(2),
			FileURL: "uploads/graphs.pdf", Status: api.StatusApproved,
			UploaderID: api.StringPtr("u-1"), CreatedAt: created,
		}, 0.9},
		{api.Resource{
			ID: "r-trees", Title: "Trees and Graph Traversal", Tags: []string{"cs"},
			FileURL: "uploads/trees.pptx", Status: api.StatusApproved, CreatedAt: created.Add(time.Hour),
		}, 0.7},
		{api.Resource{
			ID: "r-poems", Title: "Poetry Anthology", Tags: []string{"graph"},
			FileURL: "uploads/poems", Status: api.StatusApproved, CreatedAt: created.Add(2 * time.Hour),
		}, 0.3},
		{api.Resource{
			ID: "r-pending", Title: "Graph Draft", Tags: []string{},
			FileURL: "uploads/draft.pdf", Status: api.StatusPending, CreatedAt: created.Add(3 * time.Hour),
		}, 0.95},
	}
	for _, tc := range resources {
		tc.r.Embedding = unitVector(tc.sim)
		if err := store.SaveResource(ctx, tc.r); err != nil {
			t.Fatalf("SaveResource: %v", err)
		}
	}

	embedder := embeddingtest.New(2)
	embedder.Vectors["graph"] = []float32{1, 0}
	embedSrv := httptest.NewServer(embedder)
	t.Cleanup(embedSrv.Close)

	client := embedding.NewOpenAIClient(embedSrv.URL, "mock",
		embedding.WithRetry(embedding.RetryConfig{MaxRetries: 0}))

	engine, err := search.New(store, client, cfg)
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}

	adapter := NewAdapter(engine, store, DefaultConfig(),
		transport.Recovery(), transport.RequestID(), transport.Logging(nil))
	srv := httptest.NewServer(adapter.Handler())
	t.Cleanup(srv.Close)

	return &fixture{store: store, embedder: embedder, srv: srv}
}

func (f *fixture) get(t *testing.T, params url.Values) (*http.Response, []api.SearchResult) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + "/api/search?" + params.Encode())
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}
	var results []api.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp, results
}

func ids(rs []api.SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func assertIDs(t *testing.T, got []api.SearchResult, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("ids = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("ids = %v, want %v", g, want)
		}
	}
}

func TestSearch_LexicalDefault(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, results := f.get(t, url.Values{"q": {"graph"}})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := resp.Header.Get(HeaderSearchMode); got != "lexical" {
		t.Errorf("%s = %q, want lexical", HeaderSearchMode, got)
	}
	if got := resp.Header.Get(HeaderTotalCount); got != "3" {
		t.Errorf("%s = %q, want 3", HeaderTotalCount, got)
	}
	if resp.Header.Get(HeaderFallback) != "" {
		t.Error("unexpected fallback header")
	}

	// Newest first; the pending draft never appears; "graph" matches the
	// poetry resource through its tag.
	assertIDs(t, results, "r-poems", "r-trees", "r-graphs")
	for _, r := range results {
		if r.Similarity != nil {
			t.Errorf("lexical result %s carries similarity", r.ID)
		}
	}
	if f.embedder.Requests() != 0 {
		t.Errorf("lexical search called the embedder %d times", f.embedder.Requests())
	}
}

func TestSearch_ResultShape(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, err := http.Get(f.srv.URL + "/api/search?q=graph+theory")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("results = %d, want 1", len(raw))
	}

	got := raw[0]
	want := map[string]any{
		"id":             "r-graphs",
		"title":          "Graph Theory Notes",
		"description":    "",
		"uploaderName":   "priya",
		"uploadDate":     "2025-09-01T10:00:00.000Z",
		"fileType":       "pdf",
		"downloads":      float64(0),
		"school":         "Engineering",
		"program":        "",
		"yearOfCreation": float64(0),
		"courseYear":     float64(2),
		"fileUrl":        "uploads/graphs.pdf",
		"status":         "APPROVED",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %#v, want %#v", k, got[k], v)
		}
	}
	if _, ok := got["similarity"]; ok {
		t.Error("lexical result must omit similarity")
	}
}

func TestSearch_Semantic(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, results := f.get(t, url.Values{"q": {"graph"}, "semantic": {"true"}})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderSearchMode); got != "semantic" {
		t.Errorf("%s = %q, want semantic", HeaderSearchMode, got)
	}

	// Poetry (0.3) is below the floor; the pending draft is excluded.
	assertIDs(t, results, "r-graphs", "r-trees")
	if results[0].Similarity == nil || math.Abs(*results[0].Similarity-0.9) > 1e-4 {
		t.Errorf("similarity = %v, want ~0.9", results[0].Similarity)
	}
	if f.embedder.Requests() != 1 {
		t.Errorf("embedder requests = %d, want 1", f.embedder.Requests())
	}
}

func TestSearch_SemanticFlagParsing(t *testing.T) {
	tests := []struct {
		value    string
		wantMode string
	}{
		{"1", "semantic"},
		{"TRUE", "semantic"},
		{"t", "semantic"},
		{"false", "lexical"},
		{"yes", "lexical"},
		{"", "lexical"},
	}

	f := newFixture(t, search.Config{})
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			resp, _ := f.get(t, url.Values{"q": {"graph"}, "semantic": {tt.value}})
			if got := resp.Header.Get(HeaderSearchMode); got != tt.wantMode {
				t.Errorf("semantic=%q: mode = %q, want %q", tt.value, got, tt.wantMode)
			}
		})
	}
}

func TestSearch_EmptyQueryIsLexical(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, results := f.get(t, url.Values{"q": {"   "}, "semantic": {"true"}, "sort": {"title"}})

	if got := resp.Header.Get(HeaderSearchMode); got != "lexical" {
		t.Errorf("mode = %q, want lexical", got)
	}
	assertIDs(t, results, "r-graphs", "r-poems", "r-trees")
	if f.embedder.Requests() != 0 {
		t.Error("empty query must not be embedded")
	}
}

func TestSearch_UnknownSortFallsBackToRelevance(t *testing.T) {
	f := newFixture(t, search.Config{})

	_, results := f.get(t, url.Values{"q": {"graph"}, "sort": {"popularity"}})

	assertIDs(t, results, "r-poems", "r-trees", "r-graphs")
}

func TestSearch_Pagination(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, results := f.get(t, url.Values{"q": {"graph"}, "limit": {"1"}, "offset": {"1"}})

	if got := resp.Header.Get(HeaderTotalCount); got != "3" {
		t.Errorf("%s = %q, want 3 (pre-page total)", HeaderTotalCount, got)
	}
	assertIDs(t, results, "r-trees")

	_, results = f.get(t, url.Values{"q": {"graph"}, "offset": {"10"}})
	if results == nil || len(results) != 0 {
		t.Errorf("results past the end = %v, want empty array", results)
	}
}

func TestSearch_NoMatchesIsEmptyArray(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, err := http.Get(f.srv.URL + "/api/search?q=thermodynamics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	var body json.RawMessage
	json.NewDecoder(resp.Body).Decode(&body)
	if string(body) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestSearch_BadParameters(t *testing.T) {
	f := newFixture(t, search.Config{})

	for _, params := range []url.Values{
		{"q": {"graph"}, "limit": {"ten"}},
		{"q": {"graph"}, "offset": {"-1"}},
	} {
		resp, err := http.Get(f.srv.URL + "/api/search?" + params.Encode())
		if err != nil {
			t.Fatalf("GET error: %v", err)
		}
		var body api.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", params, resp.StatusCode)
		}
		if body.Error == "" {
			t.Errorf("%v: missing error message", params)
		}
	}
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	f := newFixture(t, search.Config{})
	f.embedder.FailWith(http.StatusBadRequest)

	resp, err := http.Get(f.srv.URL + "/api/search?q=graph&semantic=1")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	var body api.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "semantic search is temporarily unavailable" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestSearch_EmbeddingFailureWithFallback(t *testing.T) {
	f := newFixture(t, search.Config{FallbackToLexical: true})
	f.embedder.FailWith(http.StatusServiceUnavailable)

	resp, results := f.get(t, url.Values{"q": {"graph"}, "semantic": {"true"}})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderFallback); got != "lexical" {
		t.Errorf("%s = %q, want lexical", HeaderFallback, got)
	}
	if got := resp.Header.Get(HeaderSearchMode); got != "lexical" {
		t.Errorf("%s = %q, want lexical", HeaderSearchMode, got)
	}
	assertIDs(t, results, "r-poems", "r-trees", "r-graphs")
}

// brokenStore fails every query.
type brokenStore struct{}

func (brokenStore) FindApproved(context.Context, storage.Filter) ([]api.Resource, error) {
	return nil, errors.New("pool closed")
}

func (brokenStore) FindApprovedByVectorDistance(context.Context, []float32, int, float64) ([]api.ScoredResource, error) {
	return nil, errors.New("pool closed")
}

func TestSearch_StoreFailure(t *testing.T) {
	engine, err := search.New(brokenStore{}, nil, search.Config{})
	if err != nil {
		t.Fatalf("search.New: %v", err)
	}
	srv := httptest.NewServer(NewAdapter(engine, nil, DefaultConfig()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/search?q=graph")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	var body api.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "failed to query resources" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestSearch_QueryTooLong(t *testing.T) {
	searcher := transport.SearcherFunc(func(context.Context, search.Request, search.Page) (*search.Response, error) {
		t.Fatal("searcher must not be called")
		return nil, nil
	})
	srv := httptest.NewServer(NewAdapter(searcher, nil, Config{MaxQueryLength: 5}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/search?q=abcdef")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSearch_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, search.Config{})

	resp, err := http.Post(f.srv.URL+"/api/search", "application/json", nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t, search.Config{})

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/api/search?q=graph", nil)
	req.Header.Set(HeaderRequestID, "client-id-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "client-id-42" {
		t.Errorf("%s = %q, want client-id-42", HeaderRequestID, got)
	}

	resp, err = http.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("expected generated request ID")
	}
}

func TestHealthEndpoints(t *testing.T) {
	var healthErr error
	health := transport.HealthCheckerFunc(func(context.Context) error { return healthErr })
	srv := httptest.NewServer(NewAdapter(transport.SearcherFunc(nil), health, DefaultConfig()).Handler())
	defer srv.Close()

	for _, tc := range []struct {
		path string
		err  error
		want int
	}{
		{"/healthz", nil, http.StatusOK},
		{"/readyz", nil, http.StatusOK},
		{"/healthz", errors.New("db down"), http.StatusOK},
		{"/readyz", errors.New("db down"), http.StatusServiceUnavailable},
	} {
		healthErr = tc.err
		resp, err := http.Get(srv.URL + tc.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("GET %s (health err %v) = %d, want %d", tc.path, tc.err, resp.StatusCode, tc.want)
		}
	}
}

func TestMount(t *testing.T) {
	a := NewAdapter(transport.SearcherFunc(nil), nil, DefaultConfig())
	a.Mount("GET /metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("univault_up 1\n"))
	}))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "univault_up 1\n" {
		t.Errorf("GET /metrics = %d %q", rec.Code, rec.Body.String())
	}
}
