package chat

import (
	"sync"
	"time"
)

// SessionLimiter enforces a per-session sliding-window message budget:
// at most max messages within window. Checking and recording are separate
// so a rejected message (rate limit or sanitizer) never consumes budget.
type SessionLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	window  time.Duration
	max     int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionLimiter creates a limiter allowing max messages per window
// per session. Close releases the background cleanup goroutine.
func NewSessionLimiter(window time.Duration, max int) *SessionLimiter {
	l := &SessionLimiter{
		entries: make(map[string][]time.Time),
		window:  window,
		max:     max,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (l *SessionLimiter) Close() {
	if l == nil || l.stop == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stop) })
}

// Check returns nil if the session has budget left, or a RateLimitedError
// carrying the time until the oldest in-window message expires.
func (l *SessionLimiter) Check(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(sessionID, now)
	if len(recent) < l.max {
		return nil
	}
	retryAfter := recent[0].Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &RateLimitedError{RetryAfter: retryAfter}
}

// Record consumes one unit of budget for the session.
func (l *SessionLimiter) Record(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(sessionID, now)
	l.entries[sessionID] = append(recent, now)
}

// Remaining reports how many messages the session may still send in the
// current window.
func (l *SessionLimiter) Remaining(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(sessionID, l.now())
	if len(recent) >= l.max {
		return 0
	}
	return l.max - len(recent)
}

// prune drops timestamps older than the window. Caller must hold l.mu.
func (l *SessionLimiter) prune(sessionID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.entries[sessionID]
	recent := old[:0]
	for _, ts := range old {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) == 0 {
		delete(l.entries, sessionID)
		return nil
	}
	l.entries[sessionID] = recent
	return recent
}

// cleanup periodically evicts idle sessions to bound memory.
func (l *SessionLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for id := range l.entries {
				l.prune(id, now)
			}
			l.mu.Unlock()
		}
	}
}
