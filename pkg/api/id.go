package api

import "github.com/google/uuid"

// NewResourceID generates a new random resource ID.
func NewResourceID() string {
	return uuid.NewString()
}

// NewUserID generates a new random user ID.
func NewUserID() string {
	return uuid.NewString()
}

// ValidateID reports whether id is a well-formed UUID.
func ValidateID(id string) bool {
	return uuid.Validate(id) == nil
}
