// Package config provides unified configuration for the univault search
// service and its admin CLI.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (UNIVAULT_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the univault service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Search        SearchConfig        `yaml:"search"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

// StorageConfig holds resource store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN              string        `yaml:"dsn"`
	DSNFile          string        `yaml:"dsn_file"`          // _file variant for dsn
	MaxConns         int32         `yaml:"max_conns"`         // default: 10
	StatementTimeout time.Duration `yaml:"statement_timeout"` // default: 5s, 0 keeps the server default
	MigrateOnStart   bool          `yaml:"migrate_on_start"`  // default: false
}

// EmbeddingConfig holds settings for the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	URL        string        `yaml:"url"`          // required, e.g. http://localhost:11434
	Model      string        `yaml:"model"`        // default: "nomic-embed-text"
	APIKey     string        `yaml:"api_key"`      // optional
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Dimensions int           `yaml:"dimensions"`   // optional, informational
	Timeout    time.Duration `yaml:"timeout"`      // default: 10s
	MaxRetries int           `yaml:"max_retries"`  // default: 2
	CacheSize  int           `yaml:"cache_size"`   // default: 1024, 0 disables
}

// SearchConfig holds the deployment-wide search thresholds.
type SearchConfig struct {
	MinSimilarity      float64 `yaml:"min_similarity"`       // default: 0.5, 0 is rejected
	MaxSemanticResults int     `yaml:"max_semantic_results"` // default: 50
	FallbackToLexical  bool    `yaml:"fallback_to_lexical"`  // default: false
	MaxPageSize        int     `yaml:"max_page_size"`        // default: 100
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type           string          `yaml:"type"`            // "none", "apikey" or "session", default: "none"
	AllowAnonymous bool            `yaml:"allow_anonymous"` // default: true
	APIKeys        []APIKeyConfig  `yaml:"api_keys"`        // API key entries, honoured for any type but "none"
	APIKeyPrefix   string          `yaml:"api_key_prefix"`  // default: "uvk_"
	Session        SessionConfig   `yaml:"session"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string `yaml:"subject" json:"subject"`
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
}

// SessionConfig holds settings for web-app session tokens.
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	CookieName string `yaml:"cookie_name"` // default: "univault_session"
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// RateLimitConfig holds per-tier token bucket settings.
type RateLimitConfig struct {
	Enabled bool                 `yaml:"enabled"` // default: false
	Default TierLimit            `yaml:"default"` // default: 120 rpm, burst 20
	Tiers   map[string]TierLimit `yaml:"tiers"`
}

// TierLimit describes one tier's rate limit.
type TierLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// MCPConfig holds settings for the MCP endpoint exposing the search tool.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Path    string `yaml:"path"`    // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "DEBUG", "INFO", "WARN", "ERROR" or "TRACE", default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns:         10,
				StatementTimeout: 5 * time.Second,
			},
		},
		Embedding: EmbeddingConfig{
			Model:      "nomic-embed-text",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
			CacheSize:  1024,
		},
		Search: SearchConfig{
			MinSimilarity:      0.5,
			MaxSemanticResults: 50,
			MaxPageSize:        100,
		},
		Auth: AuthConfig{
			Type:           "none",
			AllowAnonymous: true,
			APIKeyPrefix:   "uvk_",
			Session: SessionConfig{
				CookieName: "univault_session",
			},
			RateLimit: RateLimitConfig{
				Default: TierLimit{RequestsPerMinute: 120, Burst: 20},
			},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
