// Package embeddingtest provides a deterministic OpenAI-compatible
// embeddings server for tests and local development.
//
// Vectors are built by feature hashing: every lower-cased word of the input
// adds ±1 to one of Dims buckets and the result is L2-normalized. Texts that
// share words therefore have a positive cosine similarity, which is enough to
// exercise semantic search end to end without a model.
package embeddingtest

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"sync"
	"unicode"
)

// DefaultDims is the vector size used when Server.Dims is zero.
const DefaultDims = 64

// Server answers POST /v1/embeddings.
type Server struct {
	// Dims is the vector size. Zero means DefaultDims.
	Dims int

	// Vectors overrides the hashed vector for exact input texts.
	Vectors map[string][]float32

	mu         sync.Mutex
	requests   int
	failStatus int
}

// New returns a Server producing dims-sized vectors.
func New(dims int) *Server {
	return &Server{Dims: dims, Vectors: map[string][]float32{}}
}

// Requests returns the number of embedding requests served so far.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// FailWith makes every following request fail with status. Zero restores
// normal operation.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

type request struct {
	Input any    `json:"input"`
	Model string `json:"model"`
}

type datum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type response struct {
	Object string  `json:"object"`
	Data   []datum `json:"data"`
	Model  string  `json:"model"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/v1/embeddings") {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.requests++
	fail := s.failStatus
	s.mu.Unlock()

	if fail != 0 {
		http.Error(w, `{"error":{"message":"injected failure"}}`, fail)
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request"}}`, http.StatusBadRequest)
		return
	}

	inputs, ok := inputTexts(req.Input)
	if !ok {
		http.Error(w, `{"error":{"message":"input must be a string or array of strings"}}`, http.StatusBadRequest)
		return
	}

	resp := response{Object: "list", Model: req.Model}
	for i, text := range inputs {
		resp.Data = append(resp.Data, datum{Object: "embedding", Embedding: s.vector(text), Index: i})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) vector(text string) []float32 {
	if v, ok := s.Vectors[text]; ok {
		return v
	}
	dims := s.Dims
	if dims <= 0 {
		dims = DefaultDims
	}
	return HashEmbed(text, dims)
}

func inputTexts(v any) ([]string, bool) {
	switch in := v.(type) {
	case string:
		return []string{in}, true
	case []any:
		out := make([]string, 0, len(in))
		for _, item := range in {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// HashEmbed returns the feature-hashed unit vector of text. Text without
// any word maps to the first basis vector so that the result is never zero.
func HashEmbed(text string, dims int) []float32 {
	vec := make([]float64, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		sign := 1.0
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[sum%uint64(dims)] += sign
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	out := make([]float32, dims)
	if norm == 0 {
		out[0] = 1
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out
}
