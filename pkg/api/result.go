package api

import (
	"encoding/json"
	"strconv"
)

// SearchResult is the public shape of a search hit.
//
// It is built fresh for every request and never persisted. Optional
// resource fields are coalesced to their zero values; Similarity is only
// present for semantic searches.
type SearchResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	UploaderName   string   `json:"uploaderName"`
	UploadDate     string   `json:"uploadDate"`
	FileType       string   `json:"fileType"`
	Downloads      int      `json:"downloads"`
	School         string   `json:"school"`
	Program        string   `json:"program"`
	CourseName     string   `json:"courseName"`
	ResourceType   string   `json:"resourceType"`
	YearOfCreation int      `json:"yearOfCreation"`
	CourseYear     BlankInt `json:"courseYear"`
	FileURL        string   `json:"fileUrl"`
	Status         Status   `json:"status"`
	Similarity     *float64 `json:"similarity,omitempty"`
}

// BlankInt is an optional integer that serializes to "" when unset.
// Web clients of the search API treat an empty course year as "not given".
type BlankInt struct {
	Value int
	Valid bool
}

// NewBlankInt converts an optional int.
func NewBlankInt(n *int) BlankInt {
	if n == nil {
		return BlankInt{}
	}
	return BlankInt{Value: *n, Valid: true}
}

// MarshalJSON writes the number, or "" when unset.
func (b BlankInt) MarshalJSON() ([]byte, error) {
	if !b.Valid {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(b.Value)), nil
}

// UnmarshalJSON accepts a number, "" or null.
func (b *BlankInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*b = BlankInt{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = BlankInt{Value: n, Valid: true}
	return nil
}
