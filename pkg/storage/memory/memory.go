// Package memory provides an in-memory implementation of storage.Store
// for tests and local development. Resources are lost when the process
// restarts. Cosine similarity is computed in Go in place of the database's
// native vector operator.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/storage"
)

// Store is an in-memory resource store.
type Store struct {
	mu        sync.RWMutex
	resources map[string]*api.Resource
	users     map[string]string // id -> username
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		resources: make(map[string]*api.Resource),
		users:     make(map[string]string),
	}
}

// SaveResource stores a copy of r.
func (s *Store) SaveResource(_ context.Context, r api.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[r.ID]; exists {
		return storage.ErrConflict
	}
	c := cloneResource(&r)
	c.UploaderName = nil
	s.resources[r.ID] = c
	return nil
}

// GetResource returns a copy of the resource with the given ID.
func (s *Store) GetResource(_ context.Context, id string) (*api.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.withUploader(r), nil
}

// UpdateEmbedding replaces the embedding of a resource.
func (s *Store) UpdateEmbedding(_ context.Context, id string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resources[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.Embedding = append([]float32(nil), vec...)
	return nil
}

// ListMissingEmbeddings returns the IDs of APPROVED resources, optionally
// only those without an embedding, in ID order.
func (s *Store) ListMissingEmbeddings(_ context.Context, all bool) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, r := range s.resources {
		if !r.IsApproved() {
			continue
		}
		if all || !r.HasEmbedding() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveUser inserts or renames a user.
func (s *Store) SaveUser(_ context.Context, u api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.ID] = u.Username
	return nil
}

// DeleteUser removes a user. Resources keep their uploader ID but lose the
// joined name, mirroring a dangling reference in the database.
func (s *Store) DeleteUser(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, id)
}

// FindApproved returns APPROVED resources matching f, newest first.
func (s *Store) FindApproved(ctx context.Context, f storage.Filter) ([]api.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(f.Query)
	var out []api.Resource
	for _, r := range s.resources {
		if !r.IsApproved() {
			continue
		}
		if q != "" && !matches(r, f.Query, q) {
			continue
		}
		out = append(out, *s.withUploader(r))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindApprovedByVectorDistance scores every APPROVED resource with an
// embedding by cosine similarity to vec.
func (s *Store) FindApprovedByVectorDistance(ctx context.Context, vec []float32, maxResults int, minSimilarity float64) ([]api.ScoredResource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []api.ScoredResource
	for _, r := range s.resources {
		if !r.IsApproved() || !r.HasEmbedding() {
			continue
		}
		if len(r.Embedding) != len(vec) {
			return nil, fmt.Errorf("%w: resource %s has %d dimensions, query has %d",
				storage.ErrDimensionMismatch, r.ID, len(r.Embedding), len(vec))
		}
		sim := CosineSimilarity(vec, r.Embedding)
		if sim <= minSimilarity {
			continue
		}
		out = append(out, api.ScoredResource{Resource: *s.withUploader(r), Similarity: sim})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Resource.ID < out[j].Resource.ID
	})
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// CosineSimilarity returns 1 minus the cosine distance between a and b.
// Zero vectors have similarity 0 with everything.
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// matches applies the lexical rule: substring on text fields, exact
// element on tags. lower is the lower-cased query.
func matches(r *api.Resource, query, lower string) bool {
	fields := []string{r.Title}
	for _, p := range []*string{r.Description, r.CourseName, r.School, r.Program, r.ResourceType} {
		if p != nil {
			fields = append(fields, *p)
		}
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lower) {
			return true
		}
	}
	for _, tag := range r.Tags {
		if tag == query {
			return true
		}
	}
	return false
}

// withUploader returns a copy of r with UploaderName joined from users.
// Callers must hold s.mu.
func (s *Store) withUploader(r *api.Resource) *api.Resource {
	c := cloneResource(r)
	c.UploaderName = nil
	if r.UploaderID != nil {
		if name, ok := s.users[*r.UploaderID]; ok {
			c.UploaderName = api.StringPtr(name)
		}
	}
	return c
}

func cloneResource(r *api.Resource) *api.Resource {
	c := *r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.Embedding != nil {
		c.Embedding = append([]float32(nil), r.Embedding...)
	}
	return &c
}
