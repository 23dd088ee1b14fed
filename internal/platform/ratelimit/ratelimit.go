// Copyright (c) 2026 Kaka HQ. All rights reserved.

/*
Package ratelimit implements per-client, per-route-class request limiting.

It tracks request counts in fixed windows, keyed by (client identity, route
class). Credential endpoints use a strict policy; general API endpoints a
lenient one. State is in-memory and process-local: it is lost on restart,
which fails open to "no history" — an accepted trade-off, since there is no
cross-instance coordination in this deployment.

Every call returns machine-readable limit metadata regardless of the
allow/deny outcome, so clients can self-throttle proactively.
*/
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
)

// Class identifies a group of endpoints sharing a rate-limit policy.
type Class string

const (
	// ClassAuth covers credential endpoints (login, refresh, logout).
	ClassAuth Class = "auth"

	// ClassAPI covers all other API endpoints.
	ClassAPI Class = "api"
)

// Policy configures one route class.
type Policy struct {
	// Max is the number of requests allowed per window.
	Max int

	// Window is the fixed counting window.
	Window time.Duration
}

// Result carries the outcome of a single Take call plus the metadata exposed
// to clients via response headers.
type Result struct {
	// Allowed is false once the post-increment count exceeds the policy max.
	Allowed bool

	// Limit is the configured maximum for the class.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetSeconds is the number of seconds until the window resets.
	ResetSeconds int
}

// bucketKey identifies one counter.
type bucketKey struct {
	identity string
	class    Class
}

// bucket holds the count and reset timestamp for one (identity, class) pair.
type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter is the in-memory fixed-window limiter shared by all requests.
//
// # Concurrency
//
// All bucket reads and writes happen under a single mutex. The critical
// section is a handful of map operations and integer math, so the coarse lock
// never serializes unrelated clients for a meaningful duration, while
// guaranteeing that concurrent requests for the same identity cannot
// under-count.
type Limiter struct {
	policies map[Class]Policy

	mu      sync.Mutex
	buckets map[bucketKey]*bucket

	// now is injectable for window-boundary tests.
	now func() time.Time
}

// New constructs a [Limiter] with the given per-class policies.
func New(policies map[Class]Policy) *Limiter {
	configured := make(map[Class]Policy, len(policies))
	for class, policy := range policies {
		configured[class] = policy
	}

	return &Limiter{
		policies: configured,
		buckets:  make(map[bucketKey]*bucket),
		now:      time.Now,
	}
}

// Take records one request for (identity, class) and reports whether it is
// allowed.
//
// An empty identity falls back to the shared bucket: the system never
// crashes on an unresolvable client address, it only over-restricts.
func (limiter *Limiter) Take(identity string, class Class) Result {
	if identity == "" {
		identity = constants.SharedBucketIdentity
	}

	policy, found := limiter.policies[class]
	if !found {
		// Unknown classes get the lenient policy rather than unlimited access.
		policy = limiter.policies[ClassAPI]
	}

	currentTime := limiter.now()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	key := bucketKey{identity: identity, class: class}
	entry, exists := limiter.buckets[key]
	if !exists {
		entry = &bucket{resetAt: currentTime.Add(policy.Window)}
		limiter.buckets[key] = entry
	}

	// Reset the counter atomically at the window boundary before counting
	// the current request.
	if !currentTime.Before(entry.resetAt) {
		entry.count = 0
		entry.resetAt = currentTime.Add(policy.Window)
	}

	entry.count++

	remaining := policy.Max - entry.count
	if remaining < 0 {
		remaining = 0
	}

	resetSeconds := int(entry.resetAt.Sub(currentTime).Seconds() + 0.999)
	if resetSeconds < 0 {
		resetSeconds = 0
	}

	return Result{
		Allowed:      entry.count <= policy.Max,
		Limit:        policy.Max,
		Remaining:    remaining,
		ResetSeconds: resetSeconds,
	}
}

// Start launches the background sweep of expired buckets. The goroutine exits
// when the context is cancelled.
func (limiter *Limiter) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// sweep removes buckets whose window has long passed. A stale bucket is
// semantically identical to a fresh one, so dropping it is safe.
func (limiter *Limiter) sweep() {
	currentTime := limiter.now()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for key, entry := range limiter.buckets {
		if currentTime.After(entry.resetAt) {
			delete(limiter.buckets, key)
		}
	}
}
