package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Capacity and refill rate are fixed at
// construction so every client shares the same policy.
type Limiter struct {
	mu       sync.Mutex
	capacity float64
	rate     float64 // tokens per second
	now      func() time.Time
	m        map[string]*bucket
}

func New(ratePerSec float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		capacity: float64(burst),
		rate:     ratePerSec,
		now:      time.Now,
		m:        make(map[string]*bucket),
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.rate)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets idle for longer than ttl.
func (l *Limiter) Prune(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-ttl)
	n := 0
	for k, b := range l.m {
		if b.last.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}
