// Copyright (c) 2026 Kaka HQ. All rights reserved.

package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kaka-hq/dealerdesk/internal/platform/constants"
)

func newTestLimiter() *Limiter {
	return New(map[Class]Policy{
		ClassAuth: {Max: 5, Window: 15 * time.Minute},
		ClassAPI:  {Max: 100, Window: 15 * time.Minute},
	})
}

func TestTakeDeniesBeyondMax(t *testing.T) {
	limiter := newTestLimiter()

	for attempt := 1; attempt <= 5; attempt++ {
		result := limiter.Take("10.0.0.1", ClassAuth)
		assert.True(t, result.Allowed, "attempt %d should pass", attempt)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 5-attempt, result.Remaining)
	}

	denied := limiter.Take("10.0.0.1", ClassAuth)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 0, denied.Remaining)
	assert.Greater(t, denied.ResetSeconds, 0)
}

func TestTakeIsolatesIdentitiesAndClasses(t *testing.T) {
	limiter := newTestLimiter()

	for range [5]struct{}{} {
		limiter.Take("10.0.0.1", ClassAuth)
	}
	assert.False(t, limiter.Take("10.0.0.1", ClassAuth).Allowed)

	// A different client is unaffected.
	assert.True(t, limiter.Take("10.0.0.2", ClassAuth).Allowed)

	// The same client on the lenient class is unaffected.
	assert.True(t, limiter.Take("10.0.0.1", ClassAPI).Allowed)
}

func TestTakeResetsAtWindowBoundary(t *testing.T) {
	limiter := newTestLimiter()

	currentTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return currentTime }

	for range [5]struct{}{} {
		limiter.Take("10.0.0.1", ClassAuth)
	}
	assert.False(t, limiter.Take("10.0.0.1", ClassAuth).Allowed)

	// One second before the boundary: still denied.
	currentTime = currentTime.Add(15*time.Minute - time.Second)
	assert.False(t, limiter.Take("10.0.0.1", ClassAuth).Allowed)

	// At the boundary the window starts fresh.
	currentTime = currentTime.Add(time.Second)
	result := limiter.Take("10.0.0.1", ClassAuth)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestTakeEmptyIdentitySharesBucket(t *testing.T) {
	limiter := newTestLimiter()

	for range [5]struct{}{} {
		limiter.Take("", ClassAuth)
	}

	// All unresolvable clients land in the same bucket.
	assert.False(t, limiter.Take("", ClassAuth).Allowed)
	assert.False(t, limiter.Take(constants.SharedBucketIdentity, ClassAuth).Allowed)
}

func TestTakeUnknownClassFallsBackToAPIPolicy(t *testing.T) {
	limiter := newTestLimiter()

	result := limiter.Take("10.0.0.1", Class("exotic"))
	assert.True(t, result.Allowed)
	assert.Equal(t, 100, result.Limit)
}

func TestTakeNeverUndercountsUnderConcurrency(t *testing.T) {
	limiter := New(map[Class]Policy{
		ClassAuth: {Max: 50, Window: time.Minute},
	})

	const attempts = 200
	var waitGroup sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for range [attempts]struct{}{} {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			if limiter.Take("10.0.0.1", ClassAuth).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	waitGroup.Wait()

	assert.Equal(t, 50, allowed)
}

func TestSweepDropsExpiredBuckets(t *testing.T) {
	limiter := newTestLimiter()

	currentTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return currentTime }

	limiter.Take("10.0.0.1", ClassAuth)
	limiter.Take("10.0.0.2", ClassAPI)
	assert.Len(t, limiter.buckets, 2)

	currentTime = currentTime.Add(16 * time.Minute)
	limiter.sweep()
	assert.Empty(t, limiter.buckets)
}
