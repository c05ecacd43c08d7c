package api

import (
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a resource.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus converts a string to a Status. Matching is case-insensitive.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown resource status %q", s)
	}
}

// Resource is an uploaded academic file and its catalog metadata.
//
// Optional columns are pointers so that "not set" survives the round trip
// through the store; the search formatter is responsible for coalescing.
type Resource struct {
	ID             string
	Title          string
	Description    *string
	Tags           []string
	School         *string
	Program        *string
	CourseName     *string
	ResourceType   *string
	YearOfCreation *int
	CourseYear     *int
	FileURL        string
	Status         Status
	UploaderID     *string

	// UploaderName is the joined username of the uploader. It is nil when
	// the resource is anonymous or the uploading user no longer exists.
	UploaderName *string

	// Embedding is nil until an embedding has been generated.
	Embedding []float32

	CreatedAt time.Time
}

// IsApproved reports whether the resource is visible to search.
func (r *Resource) IsApproved() bool {
	return r.Status == StatusApproved
}

// HasEmbedding reports whether an embedding has been generated.
func (r *Resource) HasEmbedding() bool {
	return len(r.Embedding) > 0
}

// User is the subset of an account the search service reads.
type User struct {
	ID       string
	Username string
}

// ScoredResource pairs a resource with its cosine similarity to a query.
type ScoredResource struct {
	Resource   Resource
	Similarity float64
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
