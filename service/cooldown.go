package service

import (
	"sync"
	"time"
)

// CooldownTracker rate-limits round participation per user. It is purely
// in-memory; restarts clear all cooldowns, which is acceptable for a
// rate-limit rather than a balance.
type CooldownTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[int64]time.Time
	now    func() time.Time
}

// NewCooldownTracker creates a tracker with the given window.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		window: window,
		last:   make(map[int64]time.Time),
		now:    time.Now,
	}
}

// CheckAndReject reports whether the user is still cooling down, and if so how
// many whole seconds remain (rounded up so "1ms left" never reads as zero).
func (t *CooldownTracker) CheckAndReject(userID int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.last[userID]
	if !ok {
		return 0, false
	}

	elapsed := t.now().Sub(last)
	if elapsed >= t.window {
		delete(t.last, userID)
		return 0, false
	}

	remaining := t.window - elapsed
	seconds := int64((remaining + time.Second - 1) / time.Second)
	return seconds, true
}

// Record marks the user's cooldown as starting now.
func (t *CooldownTracker) Record(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[userID] = t.now()
}
