package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthDecision is a single authenticator's vote.
type AuthDecision int

const (
	// Yes accepts the request with the returned identity.
	Yes AuthDecision = iota
	// No rejects the request; later authenticators are not consulted.
	No
	// Abstain leaves the request to the next authenticator.
	Abstain
)

func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	}
	return "unknown"
}

// AuthResult is a vote plus its payload. Identity is set for Yes and Err
// for No.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Grant is a Yes vote for id.
func Grant(id *Identity) AuthResult { return AuthResult{Decision: Yes, Identity: id} }

// Deny is a No vote. A nil err becomes ErrUnauthenticated.
func Deny(err error) AuthResult {
	if err == nil {
		err = ErrUnauthenticated
	}
	return AuthResult{Decision: No, Err: err}
}

// Pass is an Abstain vote.
func Pass() AuthResult { return AuthResult{Decision: Abstain} }

// Authenticator inspects the credentials on r and votes.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// AuthChain asks each authenticator in turn and returns the first vote that
// is not Abstain. When every authenticator abstains, DefaultDecision
// applies: Yes admits the caller anonymously, anything else rejects.
type AuthChain struct {
	Authenticators  []Authenticator
	DefaultDecision AuthDecision
}

func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, a := range c.Authenticators {
		if res := a.Authenticate(ctx, r); res.Decision != Abstain {
			return res
		}
	}
	if c.DefaultDecision == Yes {
		return Grant(AnonymousIdentity(r))
	}
	return Deny(nil)
}
