package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeVector(w http.ResponseWriter, vec []float32) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(embeddingResponse{Data: []embeddingData{{Embedding: vec, Index: 0}}})
}

func TestOpenAIClient_Embed(t *testing.T) {
	var got embeddingRequest
	var auth string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeVector(w, []float32{0.1, 0.2, 0.3})
	})

	c := NewOpenAIClient(srv.URL, "test-model", WithAPIKey("sk-test"), WithRetry(fastRetry()), WithHTTPClient(srv.Client()))
	assert.Same(t, srv.Client(), c.HTTPClient)
	assert.Equal(t, 0, c.Dimensions())

	vec, err := c.Embed(context.Background(), "binary\nsearch trees")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, c.Dimensions())
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, []string{"binary search trees"}, got.Input)
	assert.Equal(t, "test-model", got.Model)
}

func TestOpenAIClient_EmptyText(t *testing.T) {
	c := NewOpenAIClient("http://127.0.0.1:0", "m")
	_, err := c.Embed(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIClient_NoVector(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data":[]}`))
	})

	c := NewOpenAIClient(srv.URL, "m", WithRetry(fastRetry()))
	_, err := c.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrNoVector)
	assert.Equal(t, int32(1), calls.Load(), "missing vectors are not retried")
}

func TestOpenAIClient_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"rate limited is retried", http.StatusTooManyRequests, 3},
		{"server error is retried", http.StatusServiceUnavailable, 3},
		{"bad request is not retried", http.StatusBadRequest, 1},
		{"unauthorized is not retried", http.StatusUnauthorized, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			})

			c := NewOpenAIClient(srv.URL, "m", WithRetry(fastRetry()))
			_, err := c.Embed(context.Background(), "query")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProvider)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Code)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestOpenAIClient_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		writeVector(w, []float32{1, 0})
	})

	c := NewOpenAIClient(srv.URL, "m", WithRetry(fastRetry()))
	vec, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_TransportErrorWrapsProvider(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAIClient(url, "m", WithRetry(RetryConfig{MaxRetries: 0}))
	_, err := c.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestOpenAIClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewOpenAIClient(srv.URL, "m", WithTimeout(20*time.Millisecond), WithRetry(RetryConfig{MaxRetries: 0}))
	start := time.Now()
	_, err := c.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenAIClient_SlowAttemptIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		writeVector(w, []float32{1, 0})
	})

	c := NewOpenAIClient(srv.URL, "m", WithTimeout(50*time.Millisecond), WithRetry(fastRetry()))
	vec, err := c.Embed(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryConfig_Budget(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond, Multiplier: 2}

	// four attempts of 1s plus 100ms, 200ms and 250ms of backoff
	assert.Equal(t, 4*time.Second+550*time.Millisecond, cfg.Budget(time.Second))
	assert.Equal(t, time.Second, RetryConfig{}.Budget(time.Second))
	assert.Zero(t, cfg.Budget(0))
}

func TestOpenAIClient_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOpenAIClient(srv.URL, "m", WithRetry(fastRetry()))
	_, err := c.Embed(ctx, "query")
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls.Load(), int32(1))
}
