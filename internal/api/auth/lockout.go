package auth

import (
	"sync"
	"time"
)

// lockoutEntry tracks failed login attempts for an account. A zero
// lockedUntil means the account is not locked.
type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

// LockoutTracker locks an account after repeated failed logins.
//
// State is in memory only and lost on restart; for a single instance the
// restart itself is the cooldown. Clustered deployments would need shared
// storage for this.
type LockoutTracker struct {
	mu        sync.RWMutex
	entries   map[string]*lockoutEntry // keyed by username
	threshold int
	duration  time.Duration
	stopOnce  sync.Once
	stopped   chan struct{}
}

// NewLockoutTracker creates a new lockout tracker.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	tracker := &LockoutTracker{
		entries:   make(map[string]*lockoutEntry),
		threshold: threshold,
		duration:  duration,
		stopped:   make(chan struct{}),
	}

	go tracker.sweepLoop()

	return tracker
}

// RecordFailure records a failed login attempt.
// Returns true if the account is now locked.
func (t *LockoutTracker) RecordFailure(key string) bool {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.entries[key]
	switch {
	case entry == nil:
		entry = &lockoutEntry{}
		t.entries[key] = entry
	case now.Before(entry.lockedUntil):
		// Already locked; further attempts don't extend the lockout.
		return true
	case !entry.lockedUntil.IsZero():
		// An expired lockout starts a fresh count.
		*entry = lockoutEntry{}
	}

	entry.failures++
	if entry.failures >= t.threshold {
		entry.lockedUntil = now.Add(t.duration)
		return true
	}
	return false
}

// IsLocked returns true if the account is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	return t.RemainingLockoutTime(key) > 0
}

// RemainingLockoutTime returns how long until the lockout expires,
// or zero for unlocked accounts.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.RLock()
	entry := t.entries[key]
	t.mu.RUnlock()

	if entry == nil {
		return 0
	}
	if remaining := time.Until(entry.lockedUntil); remaining > 0 {
		return remaining
	}
	return 0
}

// ClearFailures clears failed attempts on successful login.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, key)
}

// Stop terminates the background sweep goroutine. Safe to call more than
// once; the tracker itself stays usable.
func (t *LockoutTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// sweepLoop periodically removes entries whose lockout has expired.
func (t *LockoutTracker) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopped:
			return
		case now := <-ticker.C:
			t.mu.Lock()
			for key, entry := range t.entries {
				if entry.failures == 0 || (!entry.lockedUntil.IsZero() && now.After(entry.lockedUntil)) {
					delete(t.entries, key)
				}
			}
			t.mu.Unlock()
		}
	}
}
