package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kautilyadevaraj/univault/pkg/api"
	"github.com/kautilyadevaraj/univault/pkg/observability"
)

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}

// Middleware authenticates every request outside bypassEndpoints with
// chain, applies limiter when it is non-nil, and attaches the identity to
// the request context. Rejections are written as {"error": "..."} bodies.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]struct{}, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := bypass[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			id := result.Identity
			switch {
			case result.Decision != Yes || id == nil:
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeError(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			case id.Subject == "":
				slog.Error("authenticator returned identity with empty subject")
				writeError(w, http.StatusInternalServerError, "internal authentication error")
				return
			}

			if limiter != nil {
				if err := limiter.Allow(r.Context(), id); err != nil {
					tier := tierOf(id)
					retryAfter := RetryAfterSeconds(err)
					slog.Warn("rate limit exceeded", "subject", id.Subject, "tier", tier, "retry_after", retryAfter)
					observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
					writeError(w, http.StatusTooManyRequests, ErrTooManyRequests.Error())
					return
				}
			}

			slog.Debug("request authenticated",
				"subject", id.Subject,
				"anonymous", id.IsAnonymous(),
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.NewErrorResponse(msg))
}
