package postgres

import "time"

// Config configures the pgx pool behind Store.
type Config struct {
	// DSN is a libpq URL or key/value string, e.g.
	// "postgres://univault:secret@db:5432/univault?sslmode=require".
	DSN string

	// Pool bounds. Zero values select 10 max and 2 min connections.
	MaxConns int32
	MinConns int32

	// MaxConnLifetime recycles connections (default 30m).
	MaxConnLifetime time.Duration

	// StatementTimeout is set as the session statement_timeout so that a
	// slow vector scan cannot outlive the request by much. Zero leaves the
	// server default.
	StatementTimeout time.Duration

	// MigrateOnStart applies pending migrations in New.
	MigrateOnStart bool
}

func (c *Config) applyDefaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = 10
	}
	if c.MinConns <= 0 {
		c.MinConns = 2
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
}
