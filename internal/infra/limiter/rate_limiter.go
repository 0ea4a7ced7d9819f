package limiter

import (
	"sync"
	"time"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	ResetAt    time.Time
}

type window struct {
	hits   []time.Time
	length time.Duration
}

// prune drops hits at or before now-length. Returns the surviving hits.
func (w *window) prune(now time.Time) []time.Time {
	cutoff := now.Add(-w.length)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
	return kept
}

// RateLimiter is a process-local sliding-window limiter keyed by operation and
// client identity. State is volatile and is lost on restart.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewRateLimiter builds an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

func windowKey(operation, identity string) string {
	return operation + ":" + identity
}

// CheckAndRecord admits or rejects one request for (operation, identity).
// Rejected requests are not recorded. A disabled limit always admits.
func (rl *RateLimiter) CheckAndRecord(operation, identity string, limit Limit) Decision {
	now := rl.now()
	if !limit.Enabled() {
		return Decision{Allowed: true, Limit: limit.Max, Remaining: limit.Max, ResetAt: now}
	}

	key := windowKey(operation, identity)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		w = &window{length: limit.Window}
		rl.windows[key] = w
	}
	w.length = limit.Window
	hits := w.prune(now)
	count := len(hits)

	if count >= limit.Max {
		resetAt := hits[0].Add(limit.Window)
		resetAfter := resetAt.Sub(now)
		if resetAfter < 0 {
			resetAfter = 0
		}
		return Decision{
			Allowed:    false,
			Limit:      limit.Max,
			Remaining:  0,
			ResetAfter: resetAfter,
			ResetAt:    now.Add(resetAfter),
		}
	}

	w.hits = append(hits, now)
	resetAt := w.hits[0].Add(limit.Window)

	return Decision{
		Allowed:    true,
		Limit:      limit.Max,
		Remaining:  limit.Max - count - 1,
		ResetAfter: resetAt.Sub(now),
		ResetAt:    resetAt,
	}
}

// Sweep prunes every window and forgets keys with no recent hits.
// Returns the number of keys removed.
func (rl *RateLimiter) Sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, w := range rl.windows {
		if len(w.prune(now)) == 0 {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
