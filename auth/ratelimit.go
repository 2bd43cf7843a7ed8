package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// RateLimiter tracks failed login attempts per identifier over a sliding
// window. Entries expire out of the cache one window after the last
// failure, so idle identifiers cost nothing.
type RateLimiter struct {
	mu       sync.Mutex
	attempts *ttlcache.Cache[string, []time.Time]
	max      int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing max failed attempts per
// window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []time.Time](window),
		ttlcache.WithDisableTouchOnHit[string, []time.Time](),
	)
	go cache.Start()

	return &RateLimiter{
		attempts: cache,
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether the identifier may attempt a login. When the
// limit is hit it returns the time until the oldest attempt leaves the
// window. Stale attempts are pruned before the check.
func (l *RateLimiter) Allow(identifier string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := normalizeIdentifier(identifier)
	recent := l.prune(key)
	if len(recent) < l.max {
		return true, 0
	}

	retryAfter := l.window - l.now().Sub(recent[0])
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter
}

// RecordFailure adds a timestamped failed attempt for the identifier.
func (l *RateLimiter) RecordFailure(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := normalizeIdentifier(identifier)
	recent := append(l.prune(key), l.now())
	l.attempts.Set(key, recent, l.window)
}

// Reset clears the attempt counter for the identifier, e.g. after a
// successful login.
func (l *RateLimiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts.Delete(normalizeIdentifier(identifier))
}

// Stop halts the background expiry loop.
func (l *RateLimiter) Stop() {
	l.attempts.Stop()
}

// prune drops attempts that fell out of the window. Caller holds the
// lock.
func (l *RateLimiter) prune(key string) []time.Time {
	item := l.attempts.Get(key)
	if item == nil {
		return nil
	}

	cutoff := l.now().Add(-l.window)
	var recent []time.Time
	for _, t := range item.Value() {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
