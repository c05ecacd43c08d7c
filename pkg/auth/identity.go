package auth

import (
	"net"
	"net/http"
	"strings"
)

const (
	// AnonymousSubject prefixes the subject of callers admitted without
	// credentials.
	AnonymousSubject = "anonymous"
	// DefaultTier is the rate-limit tier of callers without one.
	DefaultTier = "default"
)

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	Subject     string
	ServiceTier string
	Scopes      []string
	// Metadata holds authenticator specific values; session identities
	// carry "username".
	Metadata map[string]string
}

// Username is the display name from Metadata, or "".
func (id *Identity) Username() string {
	if id == nil {
		return ""
	}
	return id.Metadata["username"]
}

// IsAnonymous reports whether id was admitted without credentials. A nil
// identity counts as anonymous.
func (id *Identity) IsAnonymous() bool {
	return id == nil || strings.HasPrefix(id.Subject, AnonymousSubject)
}

// AnonymousIdentity keys an unauthenticated caller by client address, so
// each one gets its own rate-limit bucket.
func AnonymousIdentity(r *http.Request) *Identity {
	return &Identity{
		Subject:     AnonymousSubject + ":" + clientIP(r),
		ServiceTier: DefaultTier,
	}
}

// clientIP prefers the first X-Forwarded-For hop over RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
