// Package apikey authenticates service clients such as campus integrations
// and the admin CLI by static API key. Only SHA-256 digests of the keys are
// held in memory.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/kautilyadevaraj/univault/pkg/auth"
)

// HeaderName is checked before the Authorization header.
const HeaderName = "X-API-Key"

// Key binds a plaintext key to the identity it authenticates as.
type Key struct {
	Secret   string
	Identity auth.Identity
}

type digest [sha256.Size]byte

type entry struct {
	sum digest
	id  auth.Identity
}

// Authenticator votes on requests carrying an API key.
type Authenticator struct {
	entries []entry
	prefix  string
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithPrefix limits the bearer tokens this authenticator claims to those
// starting with prefix, so session tokens reach the next voter. The
// X-API-Key header is always claimed.
func WithPrefix(prefix string) Option {
	return func(a *Authenticator) { a.prefix = prefix }
}

// New hashes keys and discards the plaintext.
func New(keys []Key, opts ...Option) *Authenticator {
	a := &Authenticator{entries: make([]entry, 0, len(keys))}
	for _, opt := range opts {
		opt(a)
	}
	for _, k := range keys {
		id := k.Identity
		if id.ServiceTier == "" {
			id.ServiceTier = auth.DefaultTier
		}
		a.entries = append(a.entries, entry{sum: sha256.Sum256([]byte(k.Secret)), id: id})
	}
	return a
}

// Authenticate abstains when no key is presented, grants a known key and
// denies anything else, including an empty key.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	key, presented := a.extract(r)
	if !presented {
		return auth.Pass()
	}
	if key == "" {
		return auth.Deny(nil)
	}
	if id, ok := a.lookup(sha256.Sum256([]byte(key))); ok {
		return auth.Grant(&id)
	}
	return auth.Deny(nil)
}

// lookup compares against every entry so timing does not depend on which
// key matched.
func (a *Authenticator) lookup(sum digest) (auth.Identity, bool) {
	var (
		found auth.Identity
		ok    bool
	)
	for _, e := range a.entries {
		if subtle.ConstantTimeCompare(sum[:], e.sum[:]) == 1 && !ok {
			found, ok = e.id, true
		}
	}
	return found, ok
}

func (a *Authenticator) extract(r *http.Request) (string, bool) {
	if vals := r.Header.Values(HeaderName); len(vals) > 0 {
		return strings.TrimSpace(vals[0]), true
	}
	token, isBearer := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !isBearer {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token != "" && a.prefix != "" && !strings.HasPrefix(token, a.prefix) {
		return "", false
	}
	return token, true
}
