package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/observability"
)

// DefaultTimeout bounds a single request to the embeddings endpoint.
const DefaultTimeout = 10 * time.Second

// StatusError reports a non-200 answer from the embeddings endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("embedding API returned status %d: %s", e.Code, e.Body)
}

// Unwrap makes every StatusError match ErrProvider.
func (e *StatusError) Unwrap() error {
	return ErrProvider
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// OpenAIClient calls any OpenAI-compatible /v1/embeddings endpoint.
type OpenAIClient struct {
	URL        string
	Model      string
	APIKey     string
	Timeout    time.Duration
	Retry      RetryConfig
	HTTPClient *http.Client

	mu   sync.RWMutex
	dims int
}

// ClientOption configures an OpenAIClient.
type ClientOption func(*OpenAIClient)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *OpenAIClient) { c.APIKey = key }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *OpenAIClient) { c.Timeout = d }
}

// WithRetry replaces the retry policy.
func WithRetry(cfg RetryConfig) ClientOption {
	return func(c *OpenAIClient) { c.Retry = cfg }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *OpenAIClient) { c.HTTPClient = hc }
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(url, model string, opts ...ClientOption) *OpenAIClient {
	c := &OpenAIClient{
		URL:        url,
		Model:      model,
		Timeout:    DefaultTimeout,
		Retry:      DefaultRetryConfig(),
		HTTPClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// embeddingRequest is the JSON request body for the embeddings API.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingResponse is the JSON response from the embeddings API.
type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Embed normalizes text and returns its vector, retrying transient failures.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = NormalizeText(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	vec, err := retryWithBackoff(ctx, c.Retry, isRetryable, func() ([]float32, error) {
		return c.embedOnce(ctx, text)
	})
	observability.EmbeddingLatency.WithLabelValues(c.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.EmbeddingRequestsTotal.WithLabelValues(c.Model, "error").Inc()
		if ctx.Err() != nil {
			return nil, err
		}
		if !errors.Is(err, ErrProvider) && !errors.Is(err, ErrNoVector) {
			err = fmt.Errorf("%w: %w", ErrProvider, err)
		}
		return nil, err
	}
	observability.EmbeddingRequestsTotal.WithLabelValues(c.Model, "ok").Inc()

	c.mu.Lock()
	if c.dims == 0 {
		c.dims = len(vec)
	}
	c.mu.Unlock()

	return vec, nil
}

// embedOnce makes one attempt under the per-attempt timeout.
func (c *OpenAIClient) embedOnce(parent context.Context, text string) ([]float32, error) {
	ctx := parent
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
		defer cancel()
	}
	vec, err := c.post(ctx, text)
	if err != nil && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: no answer within %s", ErrTimeout, c.Timeout)
	}
	return vec, err
}

func (c *OpenAIClient) post(ctx context.Context, text string) ([]float32, error) {
	endpoint := c.URL
	if !strings.HasSuffix(endpoint, "/v1/embeddings") {
		endpoint = strings.TrimRight(endpoint, "/") + "/v1/embeddings"
	}

	body, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: c.Model})
	if err != nil {
		return nil, fmt.Errorf("marshaling embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	debug.Log("embedding", "request", "endpoint", endpoint, "model", c.Model, "chars", len(text))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading embedding response: %w", err)
	}
	debug.Raw("embedding", string(respBody))

	if resp.StatusCode != http.StatusOK {
		slog.Debug("embedding backend returned error", "status", resp.StatusCode, "model", c.Model)
		return nil, &StatusError{Code: resp.StatusCode, Body: debug.Truncate(string(respBody), 512)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("%w: parsing embedding response: %w", ErrProvider, err)
	}

	for _, d := range embResp.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, ErrNoVector
}

// Dimensions returns the dimensionality of the embedding vectors.
// Returns 0 until the first successful Embed call.
func (c *OpenAIClient) Dimensions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dims
}

// isRetryable reports whether a failed attempt may succeed when repeated.
// Transport failures, 429 and 5xx are retried; other statuses, malformed
// bodies and missing vectors are not.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, ErrProvider) || errors.Is(err, ErrNoVector) {
		return false
	}
	return true
}
