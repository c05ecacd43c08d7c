package api

// ErrorResponse is the JSON body written when a search request fails.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse builds an ErrorResponse from a message.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
