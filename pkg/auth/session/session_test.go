package session

import (
	"context"
	"net/http"
	"reflect"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/kautilyadevaraj/univault/pkg/auth"
)

var testSecret = []byte("campus-shared-secret")

func sign(t *testing.T, method jwtlib.SigningMethod, key any, claims jwtlib.MapClaims) string {
	t.Helper()
	tok, err := jwtlib.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return tok
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub":   "user-42",
		"name":  "priya",
		"tier":  "student",
		"scope": "search upload",
		"iss":   "univault-web",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func newTestAuthenticator(t *testing.T, override func(*Config)) *Authenticator {
	t.Helper()
	cfg := Config{Secret: testSecret, Issuer: "univault-web"}
	if override != nil {
		override(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestValidBearerToken(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	r, _ := http.NewRequest("GET", "/api/search", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, jwtlib.SigningMethodHS256, testSecret, validClaims()))

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err=%v)", result.Decision, result.Err)
	}
	id := result.Identity
	if id.Subject != "user-42" {
		t.Errorf("Subject = %q, want %q", id.Subject, "user-42")
	}
	if id.Username() != "priya" {
		t.Errorf("Username = %q, want %q", id.Username(), "priya")
	}
	if id.ServiceTier != "student" {
		t.Errorf("ServiceTier = %q, want %q", id.ServiceTier, "student")
	}
	if !reflect.DeepEqual(id.Scopes, []string{"search", "upload"}) {
		t.Errorf("Scopes = %v", id.Scopes)
	}
}

func TestValidCookie(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	claims := validClaims()
	delete(claims, "tier")
	r, _ := http.NewRequest("GET", "/api/search", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: sign(t, jwtlib.SigningMethodHS256, testSecret, claims)})

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err=%v)", result.Decision, result.Err)
	}
	if result.Identity.ServiceTier != auth.DefaultTier {
		t.Errorf("ServiceTier = %q, want %q", result.Identity.ServiceTier, auth.DefaultTier)
	}
}

func TestScopesArrayClaim(t *testing.T) {
	a := newTestAuthenticator(t, nil)
	claims := validClaims()
	claims["scope"] = []any{"search", 7, "admin"}
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, jwtlib.SigningMethodHS256, testSecret, claims))

	result := a.Authenticate(context.Background(), r)
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if !reflect.DeepEqual(result.Identity.Scopes, []string{"search", "admin"}) {
		t.Errorf("Scopes = %v", result.Identity.Scopes)
	}
}

func TestRejectedTokens(t *testing.T) {
	a := newTestAuthenticator(t, nil)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := validClaims()
	delete(noExp, "exp")

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "someone-else"

	noSubject := validClaims()
	delete(noSubject, "sub")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, jwtlib.SigningMethodHS256, testSecret, expired)},
		{"missing exp", sign(t, jwtlib.SigningMethodHS256, testSecret, noExp)},
		{"wrong issuer", sign(t, jwtlib.SigningMethodHS256, testSecret, wrongIssuer)},
		{"missing subject", sign(t, jwtlib.SigningMethodHS256, testSecret, noSubject)},
		{"wrong secret", sign(t, jwtlib.SigningMethodHS256, []byte("other"), validClaims())},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			result := a.Authenticate(context.Background(), r)
			if result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
			if result.Err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAudience(t *testing.T) {
	a := newTestAuthenticator(t, func(c *Config) { c.Audience = "univault-api" })

	claims := validClaims()
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, jwtlib.SigningMethodHS256, testSecret, claims))
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.No {
		t.Errorf("missing aud: Decision = %d, want No", got)
	}

	claims["aud"] = "univault-api"
	r.Header.Set("Authorization", "Bearer "+sign(t, jwtlib.SigningMethodHS256, testSecret, claims))
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.Yes {
		t.Errorf("matching aud: Decision = %d, want Yes", got)
	}
}

func TestAbstain(t *testing.T) {
	a := newTestAuthenticator(t, nil)

	r, _ := http.NewRequest("GET", "/", nil)
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.Abstain {
		t.Errorf("no credentials: Decision = %d, want Abstain", got)
	}

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if got := a.Authenticate(context.Background(), r).Decision; got != auth.Abstain {
		t.Errorf("basic auth: Decision = %d, want Abstain", got)
	}
}
