package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/search"
)

// StatusClientClosedRequest is recorded when the client went away before
// the search finished. Nothing is written to the connection in that case.
const StatusClientClosedRequest = 499

// ErrInternal is returned by Recovery when the wrapped searcher panics.
var ErrInternal = errors.New("internal server error")

// HTTPStatusFromError maps a search error to the corresponding HTTP status
// code. Embedding failures are upstream failures (502); store failures and
// anything unrecognized are server errors (500).
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, search.ErrEmbedding):
		return http.StatusBadGateway
	case errors.Is(err, search.ErrStore):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing message for err. Internal
// details (DSNs, upstream bodies) stay in the logs.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "search timed out"
	case errors.Is(err, search.ErrEmbedding):
		return "semantic search is temporarily unavailable"
	case errors.Is(err, search.ErrStore):
		return "failed to query resources"
	default:
		return "internal server error"
	}
}

// WriteErrorResponse writes a JSON error body {"error": msg} with the
// given status code.
func WriteErrorResponse(w http.ResponseWriter, msg string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.NewErrorResponse(msg))
}

// WriteError writes err as a JSON error response, deriving the status
// code and message from the error chain.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorResponse(w, PublicMessage(err), HTTPStatusFromError(err))
}
