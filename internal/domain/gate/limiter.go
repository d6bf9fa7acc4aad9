package gate

import (
	"sync"
	"time"

	"finance-app-go/internal/domain/errs"
)

// Limiter is a per-key sliding-window counter. Every accepted call is remembered for one window;
// a call is rejected while limit calls are still inside the window. Rejected calls are not
// counted.
type Limiter struct {
	name   string
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewLimiter(name string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		name:   name,
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow records a hit for key, or returns an errs.ErrRateLimited error when the window is full.
// A non-positive limit disables the limiter.
func (l *Limiter) Allow(key string) error {
	if l == nil || l.limit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.pruneLocked(key, now)
	if len(recent) >= l.limit {
		retryIn := recent[0].Add(l.window).Sub(now).Round(time.Second)
		return errs.RateLimited("too many %s requests, try again in %s", l.name, retryIn)
	}

	l.hits[key] = append(recent, now)
	return nil
}

// Remaining reports how many calls key may still make in the current window.
func (l *Limiter) Remaining(key string) int {
	if l == nil || l.limit <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.limit - len(l.pruneLocked(key, l.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forgets every hit for key.
func (l *Limiter) Reset(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.hits, key)
	l.mu.Unlock()
}

func (l *Limiter) pruneLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	hits := l.hits[key]

	idx := 0
	for idx < len(hits) && !hits[idx].After(cutoff) {
		idx++
	}
	hits = hits[idx:]
	if len(hits) == 0 {
		delete(l.hits, key)
		return nil
	}
	l.hits[key] = hits
	return hits
}
