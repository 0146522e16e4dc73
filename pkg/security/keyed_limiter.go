package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter is a per-key token bucket used when Redis is unavailable.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedEntry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows limit events per window with a burst of limit.
func NewKeyedLimiter(limit int, window time.Duration) *KeyedLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*keyedEntry),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
		idleTTL:  2 * window,
	}
}

func (k *KeyedLimiter) get(key string, now time.Time) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.limiters[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(k.rate, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool {
	now := time.Now()
	return k.get(key, now).AllowN(now, 1)
}

// Remaining reports whole tokens left for key without consuming one.
func (k *KeyedLimiter) Remaining(key string) int {
	now := time.Now()
	n := int(k.get(key, now).TokensAt(now))
	if n < 0 {
		return 0
	}
	return n
}

// Cleanup drops limiters idle for longer than two windows.
func (k *KeyedLimiter) Cleanup() {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := time.Now().Add(-k.idleTTL)
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

// StartCleanup runs Cleanup on interval until stop is closed.
func (k *KeyedLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				k.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}
