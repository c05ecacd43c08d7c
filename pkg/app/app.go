// Package app builds univault's components from a loaded configuration.
// It is shared by the server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kautilyadevaraj/univault/pkg/auth"
	"github.com/kautilyadevaraj/univault/pkg/auth/apikey"
	"github.com/kautilyadevaraj/univault/pkg/auth/noop"
	"github.com/kautilyadevaraj/univault/pkg/auth/session"
	"github.com/kautilyadevaraj/univault/pkg/config"
	"github.com/kautilyadevaraj/univault/pkg/embedding"
	"github.com/kautilyadevaraj/univault/pkg/search"
	"github.com/kautilyadevaraj/univault/pkg/storage"
	"github.com/kautilyadevaraj/univault/pkg/storage/memory"
	"github.com/kautilyadevaraj/univault/pkg/storage/postgres"
)

// OpenStore creates the configured resource store. When migrate is true,
// schema migrations run even if migrate_on_start is off.
func OpenStore(ctx context.Context, cfg config.StorageConfig, migrate bool) (storage.Store, error) {
	switch cfg.Type {
	case "", "memory":
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:              cfg.Postgres.DSN,
			MaxConns:         cfg.Postgres.MaxConns,
			StatementTimeout: cfg.Postgres.StatementTimeout,
			MigrateOnStart:   cfg.Postgres.MigrateOnStart || migrate,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// NewEmbedder creates the embedding provider, or returns nil when no
// embedding URL is configured. Semantic requests then fail with
// search.ErrEmbedding.
func NewEmbedder(cfg config.EmbeddingConfig) embedding.Provider {
	if cfg.URL == "" {
		slog.Warn("no embedding url configured, semantic search disabled")
		return nil
	}

	opts := []embedding.ClientOption{
		embedding.WithTimeout(cfg.Timeout),
		embedding.WithRetry(retryConfig(cfg)),
	}
	if cfg.APIKey != "" {
		opts = append(opts, embedding.WithAPIKey(cfg.APIKey))
	}
	client := embedding.NewOpenAIClient(cfg.URL, cfg.Model, opts...)

	if cfg.CacheSize <= 0 {
		return client
	}
	return embedding.NewCached(client, cfg.Model, cfg.CacheSize)
}

func retryConfig(cfg config.EmbeddingConfig) embedding.RetryConfig {
	retry := embedding.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	return retry
}

// NewEngine creates the search engine. provider may be nil.
//
// embedding.timeout bounds each attempt; the engine allows the provider
// every attempt plus backoff before giving up on the vector.
func NewEngine(cfg *config.Config, store storage.ResourceStore, provider embedding.Provider) (*search.Engine, error) {
	return search.New(store, provider, search.Config{
		MinSimilarity:      cfg.Search.MinSimilarity,
		MaxSemanticResults: cfg.Search.MaxSemanticResults,
		FallbackToLexical:  cfg.Search.FallbackToLexical,
		MaxPageSize:        cfg.Search.MaxPageSize,
		EmbeddingTimeout:   retryConfig(cfg.Embedding).Budget(cfg.Embedding.Timeout),
	})
}

// NewAuthChain builds the authenticator chain for cfg.
//
// API keys are honoured for both the "apikey" and "session" types, so
// scripts keep working next to browser sessions. When AllowAnonymous is
// set, requests without credentials pass as anonymous identities.
func NewAuthChain(cfg config.AuthConfig) (*auth.AuthChain, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.Yes,
		}, nil
	}

	chain := &auth.AuthChain{DefaultDecision: auth.No}
	if cfg.AllowAnonymous {
		chain.DefaultDecision = auth.Yes
	}

	if len(cfg.APIKeys) > 0 {
		keys := make([]apikey.Key, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			keys = append(keys, apikey.Key{
				Secret: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
				},
			})
		}
		var opts []apikey.Option
		if cfg.Type == "session" {
			opts = append(opts, apikey.WithPrefix(cfg.APIKeyPrefix))
		}
		chain.Authenticators = append(chain.Authenticators, apikey.New(keys, opts...))
	}

	switch cfg.Type {
	case "apikey":
	case "session":
		authn, err := session.New(session.Config{
			Secret:     []byte(cfg.Session.Secret),
			CookieName: cfg.Session.CookieName,
			Issuer:     cfg.Session.Issuer,
			Audience:   cfg.Session.Audience,
		})
		if err != nil {
			return nil, fmt.Errorf("creating session authenticator: %w", err)
		}
		chain.Authenticators = append(chain.Authenticators, authn)
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	return chain, nil
}

// NewRateLimiter returns the per-identity limiter, or nil when rate
// limiting is disabled.
func NewRateLimiter(cfg config.RateLimitConfig) auth.RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	tiers := make(map[string]auth.TierConfig, len(cfg.Tiers))
	for name, t := range cfg.Tiers {
		tiers[name] = auth.TierConfig{RequestsPerMinute: t.RequestsPerMinute, Burst: t.Burst}
	}
	return auth.NewTokenBucketLimiter(tiers, auth.TierConfig{
		RequestsPerMinute: cfg.Default.RequestsPerMinute,
		Burst:             cfg.Default.Burst,
	})
}
