package search

import (
	"strings"

	"github.com/kautilyadevaraj/univault/pkg/api"
)

const (
	// AnonymousUploader is shown when the uploader is unknown.
	AnonymousUploader = "Anonymous"

	// UnknownFileType is used when the file URL has no extension.
	UnknownFileType = "unknown"

	uploadDateLayout = "2006-01-02T15:04:05.000Z"
)

// Format shapes a hit into the public result. Similarity is included only
// when withSimilarity is set.
func Format(h api.ScoredResource, withSimilarity bool) api.SearchResult {
	r := h.Resource

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	out := api.SearchResult{
		ID:             r.ID,
		Title:          r.Title,
		Description:    stringOrEmpty(r.Description),
		Tags:           tags,
		UploaderName:   UploaderName(r),
		UploadDate:     r.CreatedAt.UTC().Format(uploadDateLayout),
		FileType:       FileType(r.FileURL),
		Downloads:      0,
		School:         stringOrEmpty(r.School),
		Program:        stringOrEmpty(r.Program),
		CourseName:     stringOrEmpty(r.CourseName),
		ResourceType:   stringOrEmpty(r.ResourceType),
		YearOfCreation: intOrZero(r.YearOfCreation),
		CourseYear:     api.NewBlankInt(r.CourseYear),
		FileURL:        r.FileURL,
		Status:         r.Status,
	}
	if withSimilarity {
		sim := h.Similarity
		out.Similarity = &sim
	}
	return out
}

// FormatAll formats hits in order.
func FormatAll(hits []api.ScoredResource, withSimilarity bool) []api.SearchResult {
	out := make([]api.SearchResult, len(hits))
	for i, h := range hits {
		out[i] = Format(h, withSimilarity)
	}
	return out
}

// FileType returns the lower-cased suffix after the last "." of fileURL, or
// UnknownFileType when there is none.
func FileType(fileURL string) string {
	i := strings.LastIndex(fileURL, ".")
	if i < 0 || i == len(fileURL)-1 {
		return UnknownFileType
	}
	return strings.ToLower(fileURL[i+1:])
}

// UploaderName returns the joined username, or AnonymousUploader when the
// resource has no uploader or the user no longer exists.
func UploaderName(r api.Resource) string {
	if r.UploaderID == nil || r.UploaderName == nil || *r.UploaderName == "" {
		return AnonymousUploader
	}
	return *r.UploaderName
}
