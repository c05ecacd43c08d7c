// Package session provides an authenticator for the signed session tokens
// issued by the univault web application after a student signs in.
//
// Tokens are HMAC-signed JWTs (HS256/384/512) carrying the user id in
// "sub", the display name in "name" and an optional service tier in "tier".
// They are read from the session cookie or from an Authorization bearer
// header.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/kautilyadevaraj/univault/pkg/auth"
)

// DefaultCookieName is the cookie set by the web application.
const DefaultCookieName = "univault_session"

// Config holds the session authenticator configuration.
type Config struct {
	// Secret is the HMAC key shared with the web application. Required.
	Secret []byte

	// CookieName is the session cookie. Default: DefaultCookieName.
	CookieName string

	// Issuer is the expected iss claim. If empty, issuer is not validated.
	Issuer string

	// Audience is the expected aud claim. If empty, audience is not validated.
	Audience string

	// TierClaim is the claim used as the service tier. Default: "tier".
	TierClaim string

	// ScopesClaim is the claim used for authorization scopes. Default: "scope".
	// The value can be a space-separated string or a JSON array.
	ScopesClaim string
}

func (c *Config) applyDefaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.TierClaim == "" {
		c.TierClaim = "tier"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
}

// Authenticator validates session tokens.
type Authenticator struct {
	config Config
	parser *jwtlib.Parser
}

// New creates a session authenticator. It fails when no secret is configured.
func New(cfg Config) (*Authenticator, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session: secret is required")
	}
	cfg.applyDefaults()

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwtlib.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}

	return &Authenticator{config: cfg, parser: jwtlib.NewParser(opts...)}, nil
}

// Authenticate validates the session token and returns the signed-in user.
//
// Decision outcomes:
//   - Abstain: no session cookie and no Bearer header
//   - No: token present but invalid (expired, wrong issuer, bad signature, etc.)
//   - Yes: valid token with populated Identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	tokenStr, ok := a.token(r)
	if !ok {
		return auth.Pass()
	}
	if tokenStr == "" {
		return auth.Deny(errors.New("empty session token"))
	}

	claims := jwtlib.MapClaims{}
	token, err := a.parser.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (any, error) {
		return a.config.Secret, nil
	})
	if err != nil {
		slog.Debug("session token validation failed", "error", err)
		return auth.Deny(fmt.Errorf("invalid session token: %w", err))
	}
	if !token.Valid {
		return auth.Deny(errors.New("invalid session token"))
	}

	subject := claimString(claims, "sub")
	if subject == "" {
		return auth.Deny(errors.New(`session token missing "sub" claim`))
	}

	identity := &auth.Identity{
		Subject:     subject,
		ServiceTier: claimString(claims, a.config.TierClaim),
		Scopes:      extractScopes(claims, a.config.ScopesClaim),
		Metadata:    make(map[string]string),
	}
	if identity.ServiceTier == "" {
		identity.ServiceTier = auth.DefaultTier
	}
	if name := claimString(claims, "name"); name != "" {
		identity.Metadata["username"] = name
	}

	return auth.Grant(identity)
}

// token returns the session token and whether one was presented.
// The cookie wins over the Authorization header.
func (a *Authenticator) token(r *http.Request) (string, bool) {
	if c, err := r.Cookie(a.config.CookieName); err == nil {
		return c.Value, true
	}
	tok, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return "", false
	}
	return strings.TrimSpace(tok), true
}

// claimString extracts a string value from claims.
// Returns empty string if the claim is missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// extractScopes reads a space-separated string or a JSON array claim.
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if parts := strings.Fields(v); len(parts) > 0 {
			return parts
		}
	case []any:
		var scopes []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
