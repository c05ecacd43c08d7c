package embedding

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/kautilyadevaraj/univault/pkg/api"
)

var (
	// ErrEmptyText is returned when the input is empty after normalization.
	ErrEmptyText = errors.New("embedding: empty text")

	// ErrNoVector is returned when the backend answered without a vector.
	ErrNoVector = errors.New("embedding: no vector returned")

	// ErrProvider is returned when the backend could not be reached or
	// rejected the request.
	ErrProvider = errors.New("embedding: provider failure")

	// ErrTimeout is returned when the backend did not answer in time while
	// the caller was still waiting. It never wraps context.DeadlineExceeded,
	// which is reserved for the caller's own deadline.
	ErrTimeout = errors.New("embedding: timed out")
)

// Provider embeds text into a fixed-length dense vector.
type Provider interface {
	// Embed returns the vector for text. Implementations must honor ctx
	// cancellation.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of the vectors.
	// Returns 0 until the first successful Embed call.
	Dimensions() int
}

// NormalizeText collapses line breaks to single spaces and trims the result.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}

// ResourceText builds the text a resource embedding is generated from.
//
// The fields are title, description, course name, resource type, school,
// program, tags and year of creation, in that order. Unset fields are
// skipped. Changing any of them leaves a stored embedding stale until it
// is regenerated.
func ResourceText(r api.Resource) string {
	parts := []string{r.Title}
	for _, p := range []*string{r.Description, r.CourseName, r.ResourceType, r.School, r.Program} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if len(r.Tags) > 0 {
		parts = append(parts, strings.Join(r.Tags, " "))
	}
	if r.YearOfCreation != nil {
		parts = append(parts, strconv.Itoa(*r.YearOfCreation))
	}

	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return NormalizeText(b.String())
}
