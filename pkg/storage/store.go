package storage

import (
	"context"

	"github.com/kautilyadevaraj/univault/pkg/api"
)

// Filter selects APPROVED resources for lexical search.
type Filter struct {
	// Query is matched case-insensitively as a substring of title,
	// description, course name, school, program and resource type, and
	// exactly against tags. An empty Query matches every APPROVED resource.
	Query string
}

// ResourceStore is the read side used by search.
//
// Both methods only ever return APPROVED resources. UploaderName is
// populated when the uploader still exists.
type ResourceStore interface {
	// FindApproved returns resources matching f, newest first with ties
	// broken by ID.
	FindApproved(ctx context.Context, f Filter) ([]api.Resource, error)

	// FindApprovedByVectorDistance returns resources with an embedding whose
	// cosine similarity to vec is strictly greater than minSimilarity,
	// highest similarity first, at most maxResults of them.
	FindApprovedByVectorDistance(ctx context.Context, vec []float32, maxResults int, minSimilarity float64) ([]api.ScoredResource, error)
}

// ResourceWriter is the maintenance side used by the indexer, the admin CLI
// and tests.
type ResourceWriter interface {
	// SaveResource inserts a resource. Returns ErrConflict if the ID exists.
	SaveResource(ctx context.Context, r api.Resource) error

	// GetResource returns a resource regardless of status.
	GetResource(ctx context.Context, id string) (*api.Resource, error)

	// UpdateEmbedding replaces the embedding of a resource.
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error

	// ListMissingEmbeddings returns IDs of APPROVED resources. When all is
	// false only resources without an embedding are listed.
	ListMissingEmbeddings(ctx context.Context, all bool) ([]string, error)

	// SaveUser inserts or renames a user.
	SaveUser(ctx context.Context, u api.User) error
}

// Store is implemented by every adapter.
type Store interface {
	ResourceStore
	ResourceWriter

	// HealthCheck verifies that the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}
