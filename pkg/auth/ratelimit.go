package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// RateLimitError is returned when a bucket is empty. It matches
// ErrTooManyRequests.
type RateLimitError struct {
	// RetryAfter is how long until the bucket holds a token again.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrTooManyRequests, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrTooManyRequests
}

// RetryAfterSeconds returns the Retry-After value for err: the wait carried
// by a RateLimitError rounded up to whole seconds, and never less than 1.
func RetryAfterSeconds(err error) int {
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		return 1
	}
	return max(int(math.Ceil(rle.RetryAfter.Seconds())), 1)
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int

	// Burst is the bucket size. Zero means RequestsPerMinute.
	Burst int
}

// idleTTL is how long an unused bucket is kept before it is pruned.
const idleTTL = 10 * time.Minute

// TokenBucketLimiter keeps one token bucket per subject and tier in memory.
type TokenBucketLimiter struct {
	tiers       map[string]TierConfig
	defaultTier TierConfig

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter creates a limiter with per-tier configuration.
// Identities whose tier is not listed use defaultTier.
func NewTokenBucketLimiter(tiers map[string]TierConfig, defaultTier TierConfig) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		tiers:       tiers,
		defaultTier: defaultTier,
		buckets:     make(map[string]*bucket),
		now:         time.Now,
	}
}

// Allow takes a token from the caller's bucket. A tier with a
// non-positive rate is unlimited.
func (l *TokenBucketLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := tierOf(identity)

	tc := l.defaultTier
	if c, ok := l.tiers[tier]; ok {
		tc = c
	}
	if tc.RequestsPerMinute <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	b, ok := l.buckets[key]
	if !ok {
		burst := tc.Burst
		if burst <= 0 {
			burst = tc.RequestsPerMinute
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(tc.RequestsPerMinute)/60), burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return nil
	}

	// When the next token lands, without spending it.
	res := b.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return &RateLimitError{RetryAfter: wait}
}

// prune drops idle buckets at most once per idleTTL. Caller holds l.mu.
func (l *TokenBucketLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < idleTTL {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= idleTTL {
			delete(l.buckets, k)
		}
	}
	l.lastPrune = now
}

func tierOf(identity *Identity) string {
	if identity == nil || identity.ServiceTier == "" {
		return DefaultTier
	}
	return identity.ServiceTier
}
