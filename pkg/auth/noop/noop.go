// Package noop provides a no-op authenticator that accepts all requests.
// Used for development and for public deployments where search is open.
package noop

import (
	"context"
	"net/http"

	"github.com/kautilyadevaraj/univault/pkg/auth"
)

// Authenticator always returns Yes with an anonymous identity keyed by the
// caller's address.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	return auth.Grant(auth.AnonymousIdentity(r))
}
