// Command mock-embedder runs a deterministic OpenAI-compatible embeddings
// server for local development and integration testing. Texts sharing
// words get similar vectors, so semantic search behaves plausibly without
// a model.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 11434)
//	MOCK_DIMS - Vector size (default: 64)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kautilyadevaraj/univault/pkg/embedding/embeddingtest"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "11434"
	}

	dims := embeddingtest.DefaultDims
	if v := os.Getenv("MOCK_DIMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Error("invalid MOCK_DIMS", "value", v)
			os.Exit(1)
		}
		dims = n
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/embeddings", embeddingtest.New(dims))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock embedder starting", "port", port, "dims", dims)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock embedder failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock embedder shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
