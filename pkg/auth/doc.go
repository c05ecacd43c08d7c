// Package auth provides pluggable authentication and rate limiting for
// the univault search API.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain; search is public by default, so the
// default voter usually admits callers as anonymous identities.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// search engine. Identities feed the per-tier token-bucket rate limiter.
package auth
