package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with a descriptive field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
		if c.Storage.Postgres.StatementTimeout < 0 {
			errs = append(errs, fmt.Errorf("storage.postgres.statement_timeout must not be negative"))
		}
	}

	// The embedding endpoint is optional: without it semantic queries fail
	// (or fall back to lexical when enabled).
	if c.Embedding.URL != "" {
		if u, err := url.Parse(c.Embedding.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("embedding.url must be an absolute URL, got %q", c.Embedding.URL))
		}
	}
	if c.Embedding.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("embedding.timeout must be > 0, got %s", c.Embedding.Timeout))
	}
	if c.Embedding.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("embedding.max_retries must be >= 0, got %d", c.Embedding.MaxRetries))
	}
	if c.Embedding.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("embedding.cache_size must be >= 0, got %d", c.Embedding.CacheSize))
	}

	switch {
	case c.Search.MinSimilarity < -1 || c.Search.MinSimilarity >= 1:
		errs = append(errs, fmt.Errorf("search.min_similarity must be in [-1, 1), got %v", c.Search.MinSimilarity))
	case c.Search.MinSimilarity == 0:
		// The engine reads 0 as "unset" and applies its 0.5 default.
		errs = append(errs, fmt.Errorf("search.min_similarity must not be 0; use a small value such as 0.01 for a near-open floor"))
	}
	if c.Search.MaxSemanticResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_semantic_results must be > 0, got %d", c.Search.MaxSemanticResults))
	}
	if c.Search.MaxPageSize <= 0 {
		errs = append(errs, fmt.Errorf("search.max_page_size must be > 0, got %d", c.Search.MaxPageSize))
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
	case "session":
		if c.Auth.Session.Secret == "" && c.Auth.Session.SecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.session.secret or auth.session.secret_file is required when auth.type is \"session\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"session\", got %q", c.Auth.Type))
	}
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
		}
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
	}

	if c.Auth.RateLimit.Enabled && c.Auth.RateLimit.Default.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.default.requests_per_minute must be >= 0"))
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path must start with \"/\", got %q", c.MCP.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
