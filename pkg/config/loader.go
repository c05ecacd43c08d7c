package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// searchPaths are tried, in order, when neither an explicit path nor
// UNIVAULT_CONFIG names a config file.
var searchPaths = []string{"config.yaml", "/etc/univault/config.yaml"}

// Load builds the configuration in layers. Later layers win:
//
//	defaults < YAML file < UNIVAULT_* variables < *_file secrets
//
// The result is validated before it is returned.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := findConfigFile(configPath); path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := resolveSecretFiles(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// findConfigFile returns "" when no file is configured and none of the
// searchPaths exists. Defaults alone are a valid configuration.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("UNIVAULT_CONFIG"); p != "" {
		return p
	}
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// readYAML decodes path over cfg; keys absent from the file keep their
// defaults.
func readYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// envBinding applies one variable's value to cfg.
type envBinding func(cfg *Config, raw string) error

func bind[T any](parse func(string) (T, error), field func(*Config) *T) envBinding {
	return func(cfg *Config, raw string) error {
		v, err := parse(raw)
		if err != nil {
			return err
		}
		*field(cfg) = v
		return nil
	}
}

func asString(s string) (string, error) { return s, nil }

func asFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func asKeys(s string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(s), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

var envBindings = map[string]envBinding{
	"UNIVAULT_PORT":                 bind(strconv.Atoi, func(c *Config) *int { return &c.Server.Port }),
	"UNIVAULT_STORAGE":              bind(asString, func(c *Config) *string { return &c.Storage.Type }),
	"UNIVAULT_DATABASE_URL":         bind(asString, func(c *Config) *string { return &c.Storage.Postgres.DSN }),
	"UNIVAULT_MIGRATE_ON_START":     bind(strconv.ParseBool, func(c *Config) *bool { return &c.Storage.Postgres.MigrateOnStart }),
	"UNIVAULT_EMBEDDING_URL":        bind(asString, func(c *Config) *string { return &c.Embedding.URL }),
	"UNIVAULT_EMBEDDING_MODEL":      bind(asString, func(c *Config) *string { return &c.Embedding.Model }),
	"UNIVAULT_EMBEDDING_KEY":        bind(asString, func(c *Config) *string { return &c.Embedding.APIKey }),
	"UNIVAULT_EMBEDDING_TIMEOUT":    bind(time.ParseDuration, func(c *Config) *time.Duration { return &c.Embedding.Timeout }),
	"UNIVAULT_MIN_SIMILARITY":       bind(asFloat, func(c *Config) *float64 { return &c.Search.MinSimilarity }),
	"UNIVAULT_MAX_SEMANTIC_RESULTS": bind(strconv.Atoi, func(c *Config) *int { return &c.Search.MaxSemanticResults }),
	"UNIVAULT_FALLBACK_TO_LEXICAL":  bind(strconv.ParseBool, func(c *Config) *bool { return &c.Search.FallbackToLexical }),
	"UNIVAULT_AUTH_TYPE":            bind(asString, func(c *Config) *string { return &c.Auth.Type }),
	"UNIVAULT_SESSION_SECRET":       bind(asString, func(c *Config) *string { return &c.Auth.Session.Secret }),
	"UNIVAULT_API_KEYS":             bind(asKeys, func(c *Config) *[]APIKeyConfig { return &c.Auth.APIKeys }),
	"UNIVAULT_MCP_ENABLED":          bind(strconv.ParseBool, func(c *Config) *bool { return &c.MCP.Enabled }),
	"UNIVAULT_LOG_FORMAT":           bind(asString, func(c *Config) *string { return &c.Logging.Format }),
}

// applyEnv applies every set, non-empty UNIVAULT_* variable and reports all
// unparsable ones together.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for name, apply := range envBindings {
		raw, ok := lookup(name)
		if !ok || raw == "" {
			continue
		}
		if err := apply(cfg, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// secretRef pairs a *_file setting with the value it fills.
type secretRef struct {
	key   string
	path  string
	value *string
}

// resolveSecretFiles fills empty secret values from their *_file
// counterparts. An explicit value always wins over the file.
func resolveSecretFiles(cfg *Config) error {
	refs := []secretRef{
		{"embedding.api_key_file", cfg.Embedding.APIKeyFile, &cfg.Embedding.APIKey},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"auth.session.secret_file", cfg.Auth.Session.SecretFile, &cfg.Auth.Session.Secret},
	}
	for i := range cfg.Auth.APIKeys {
		k := &cfg.Auth.APIKeys[i]
		refs = append(refs, secretRef{fmt.Sprintf("auth.api_keys[%d].key_file", i), k.KeyFile, &k.Key})
	}

	for _, ref := range refs {
		if ref.path == "" || *ref.value != "" {
			continue
		}
		data, err := os.ReadFile(ref.path)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.key, err)
		}
		*ref.value = strings.TrimSpace(string(data))
	}
	return nil
}
