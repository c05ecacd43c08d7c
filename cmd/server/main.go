// Command server runs the univault resource search service.
//
// Configuration is read from a YAML file and UNIVAULT_* environment
// variables (see pkg/config). The config file is located via the -config
// flag, UNIVAULT_CONFIG, ./config.yaml or /etc/univault/config.yaml.
// Without any configuration the server listens on :8080 with an in-memory
// store and lexical search only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kautilyadevaraj/univault/pkg/app"
	"github.com/kautilyadevaraj/univault/pkg/auth"
	"github.com/kautilyadevaraj/univault/pkg/config"
	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/mcpserver"
	"github.com/kautilyadevaraj/univault/pkg/observability"
	"github.com/kautilyadevaraj/univault/pkg/transport"
	transporthttp "github.com/kautilyadevaraj/univault/pkg/transport/http"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	store, err := app.OpenStore(ctx, cfg.Storage, false)
	if err != nil {
		return err
	}
	defer store.Close()

	provider := app.NewEmbedder(cfg.Embedding)

	eng, err := app.NewEngine(cfg, store, provider)
	if err != nil {
		return fmt.Errorf("creating search engine: %w", err)
	}

	chain, err := app.NewAuthChain(cfg.Auth)
	if err != nil {
		return err
	}
	limiter := app.NewRateLimiter(cfg.Auth.RateLimit)

	bypass := slices.Clone(auth.DefaultBypassEndpoints)
	if cfg.Observability.Metrics.Enabled && !slices.Contains(bypass, cfg.Observability.Metrics.Path) {
		bypass = append(bypass, cfg.Observability.Metrics.Path)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMiddleware(
			observability.MetricsMiddleware,
			auth.Middleware(chain, limiter, bypass),
		),
	}

	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithHandler("GET "+cfg.Observability.Metrics.Path, promhttp.Handler()))
	}

	if cfg.MCP.Enabled {
		// MCP calls share the recovery and logging of the HTTP API.
		searcher := transport.Chain(
			transport.Recovery(),
			transport.RequestID(),
			transport.Logging(slog.Default()),
		)(eng)
		mcpSrv := mcpserver.New(searcher, version, slog.Default())
		opts = append(opts, transporthttp.WithHandler(cfg.MCP.Path, mcpSrv.Handler()))
		slog.Info("mcp enabled", "path", cfg.MCP.Path)
	}

	srv := transporthttp.NewServer(eng, store, opts...)

	slog.Info("univault starting",
		"version", version,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"semantic", provider != nil,
		"auth", cfg.Auth.Type,
		"rate_limit", cfg.Auth.RateLimit.Enabled,
	)

	return srv.ListenAndServe()
}
