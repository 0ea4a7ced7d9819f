package limiter

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// BruteForceProtection counts failed logins per identifier and locks the
// identifier out once MaxAttempts failures fall within LockoutDuration.
// Expired lockouts are cleared lazily on the next IsLockedOut call.
type BruteForceProtection struct {
	mu              sync.Mutex
	maxAttempts     int
	lockoutDuration time.Duration
	failures        map[string][]time.Time
	lockouts        map[string]time.Time
	now             func() time.Time
}

// NewBruteForceProtection builds a tracker. Non-positive arguments select the defaults.
func NewBruteForceProtection(maxAttempts int, lockoutDuration time.Duration) *BruteForceProtection {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockoutDuration <= 0 {
		lockoutDuration = DefaultLockoutDuration
	}
	return &BruteForceProtection{
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
		failures:        make(map[string][]time.Time),
		lockouts:        make(map[string]time.Time),
		now:             time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (b *BruteForceProtection) WithClock(now func() time.Time) *BruteForceProtection {
	if now != nil {
		b.now = now
	}
	return b
}

// MaxAttempts returns the configured failure threshold.
func (b *BruteForceProtection) MaxAttempts() int {
	return b.maxAttempts
}

// LockoutDuration returns the configured lockout length.
func (b *BruteForceProtection) LockoutDuration() time.Duration {
	return b.lockoutDuration
}

// IsLockedOut reports whether id is locked out and for how long.
func (b *BruteForceProtection) IsLockedOut(id string) (bool, time.Duration) {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.lockouts[id]
	if !ok {
		return false, 0
	}
	if until.After(now) {
		return true, until.Sub(now)
	}

	delete(b.lockouts, id)
	delete(b.failures, id)
	return false, 0
}

// RecordFailure registers a failed attempt. It returns true when this failure
// started a lockout.
func (b *BruteForceProtection) RecordFailure(id string) bool {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if until, ok := b.lockouts[id]; ok && !until.After(now) {
		delete(b.lockouts, id)
	}

	recent := b.recentFailures(id, now)
	recent = append(recent, now)
	b.failures[id] = recent

	if len(recent) >= b.maxAttempts {
		_, already := b.lockouts[id]
		b.lockouts[id] = now.Add(b.lockoutDuration)
		return !already
	}
	return false
}

// RecordSuccess forgets all failures and any lockout for id.
func (b *BruteForceProtection) RecordSuccess(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.failures, id)
	delete(b.lockouts, id)
}

// RemainingAttempts returns how many failures id may still accumulate before lockout.
func (b *BruteForceProtection) RemainingAttempts(id string) int {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.maxAttempts - len(b.recentFailures(id, now))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Sweep drops expired lockouts and identifiers whose failures have all aged out.
// Returns the number of identifiers forgotten.
func (b *BruteForceProtection) Sweep() int {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, until := range b.lockouts {
		if !until.After(now) {
			delete(b.lockouts, id)
			delete(b.failures, id)
		}
	}

	removed := 0
	for id := range b.failures {
		if _, locked := b.lockouts[id]; locked {
			continue
		}
		if len(b.recentFailures(id, now)) == 0 {
			delete(b.failures, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of identifiers with failure history.
func (b *BruteForceProtection) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.failures)
}

// recentFailures prunes failures older than the lockout duration. Caller holds mu.
func (b *BruteForceProtection) recentFailures(id string, now time.Time) []time.Time {
	cutoff := now.Add(-b.lockoutDuration)
	ts := b.failures[id]
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(b.failures, id)
		return nil
	}
	b.failures[id] = kept
	return kept
}
