// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and the pgvector extension for the
// cosine distance operator used by semantic search.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/debug"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

// Store is a PostgreSQL-backed resource store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.applyDefaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	if cfg.StatementTimeout > 0 {
		poolCfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if _, err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// resourceColumns is the projection shared by every search query. The
// uploader name comes from a LEFT JOIN so that anonymous uploads and
// deleted users both yield NULL.
const resourceColumns = `
	r.id, r.title, r.description, r.tags, r.school, r.program,
	r.course_name, r.resource_type, r.year_of_creation, r.course_year,
	r.file_url, r.status, r.uploader_id, u.username, r.created_at`

// FindApproved returns APPROVED resources matching f, newest first.
func (s *Store) FindApproved(ctx context.Context, f storage.Filter) ([]api.Resource, error) {
	query := `SELECT` + resourceColumns + `
		FROM resources r
		LEFT JOIN users u ON u.id = r.uploader_id
		WHERE r.status = 'APPROVED'`

	var args []any
	if f.Query != "" {
		query += ` AND (
			r.title ILIKE $1 ESCAPE '\'
			OR r.description ILIKE $1 ESCAPE '\'
			OR r.course_name ILIKE $1 ESCAPE '\'
			OR r.school ILIKE $1 ESCAPE '\'
			OR r.program ILIKE $1 ESCAPE '\'
			OR r.resource_type ILIKE $1 ESCAPE '\'
			OR $2 = ANY(r.tags)
		)`
		args = append(args, "%"+escapeLike(f.Query)+"%", f.Query)
	}
	query += ` ORDER BY r.created_at DESC, r.id`

	debug.Log("storage", "find approved", "query_len", len(f.Query))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	resources, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.Resource, error) {
		return scanResource(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning resources: %w", err)
	}
	return resources, nil
}

// FindApprovedByVectorDistance ranks APPROVED resources by cosine
// similarity, computed as 1 - (embedding <=> query). A non-positive
// maxResults means no limit.
func (s *Store) FindApprovedByVectorDistance(ctx context.Context, vec []float32, maxResults int, minSimilarity float64) ([]api.ScoredResource, error) {
	query := `SELECT` + resourceColumns + `,
			1 - (r.embedding <=> $1::vector) AS similarity
		FROM resources r
		LEFT JOIN users u ON u.id = r.uploader_id
		WHERE r.status = 'APPROVED'
		  AND r.embedding IS NOT NULL
		  AND 1 - (r.embedding <=> $1::vector) > $2
		ORDER BY r.embedding <=> $1::vector, r.id
		LIMIT $3`

	debug.Log("storage", "find by vector", "dims", len(vec), "max", maxResults, "min_similarity", minSimilarity)

	var limit any
	if maxResults > 0 {
		limit = maxResults
	}

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vec), minSimilarity, limit)
	if err != nil {
		return nil, s.vectorError(err)
	}
	scored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.ScoredResource, error) {
		var sr api.ScoredResource
		r, err := scanResource(row, &sr.Similarity)
		sr.Resource = r
		return sr, err
	})
	if err != nil {
		return nil, s.vectorError(err)
	}
	return scored, nil
}

// SaveResource inserts a resource.
func (s *Store) SaveResource(ctx context.Context, r api.Resource) error {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	var emb any
	if r.HasEmbedding() {
		emb = pgvector.NewVector(r.Embedding)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO resources (
			id, title, description, tags, school, program,
			course_name, resource_type, year_of_creation, course_year,
			file_url, status, uploader_id, embedding, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::vector, $15)
	`,
		r.ID, r.Title, r.Description, tags, r.School, r.Program,
		r.CourseName, r.ResourceType, r.YearOfCreation, r.CourseYear,
		r.FileURL, string(r.Status), r.UploaderID, emb, r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting resource: %w", err)
	}
	return nil
}

// GetResource returns a resource by ID regardless of status, including its
// embedding.
func (s *Store) GetResource(ctx context.Context, id string) (*api.Resource, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+resourceColumns+`, r.embedding::text
		FROM resources r
		LEFT JOIN users u ON u.id = r.uploader_id
		WHERE r.id = $1`, id)

	var embText *string
	r, err := scanResource(row, &embText)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying resource: %w", err)
	}

	if embText != nil {
		var v pgvector.Vector
		if err := v.Scan(*embText); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		r.Embedding = v.Slice()
	}
	return &r, nil
}

// UpdateEmbedding replaces the embedding of a resource.
func (s *Store) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE resources SET embedding = $2::vector WHERE id = $1",
		id, pgvector.NewVector(vec),
	)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMissingEmbeddings returns IDs of APPROVED resources, optionally only
// those without an embedding.
func (s *Store) ListMissingEmbeddings(ctx context.Context, all bool) ([]string, error) {
	query := "SELECT id FROM resources WHERE status = 'APPROVED'"
	if !all {
		query += " AND embedding IS NULL"
	}
	query += " ORDER BY id"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return ids, nil
}

// SaveUser inserts or renames a user.
func (s *Store) SaveUser(ctx context.Context, u api.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`, u.ID, u.Username)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanResource scans the resourceColumns projection followed by extra
// destinations.
func scanResource(row pgx.Row, extra ...any) (api.Resource, error) {
	var r api.Resource
	var status string
	dest := []any{
		&r.ID, &r.Title, &r.Description, &r.Tags, &r.School, &r.Program,
		&r.CourseName, &r.ResourceType, &r.YearOfCreation, &r.CourseYear,
		&r.FileURL, &status, &r.UploaderID, &r.UploaderName, &r.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return api.Resource{}, err
	}
	r.Status = api.Status(status)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

// vectorError maps pgvector dimension errors to ErrDimensionMismatch.
func (s *Store) vectorError(err error) error {
	if strings.Contains(err.Error(), "different vector dimensions") {
		return fmt.Errorf("%w: %v", storage.ErrDimensionMismatch, err)
	}
	return fmt.Errorf("querying resources by vector: %w", err)
}

// escapeLike escapes LIKE metacharacters so the query is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
