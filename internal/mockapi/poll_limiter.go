package mockapi

import (
	"sync"
	"time"
)

const pollLimitWindow = 1 * time.Second

type pollLimiter struct {
	mu      sync.Mutex
	lastHit map[string]time.Time
	now     func() time.Time
	window  time.Duration
}

// newPollLimiter builds a fixed-window limiter keyed by session id. A
// negative window disables limiting entirely (nil limiter allows all).
func newPollLimiter(window time.Duration, now func() time.Time) *pollLimiter {
	if window < 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if window == 0 {
		window = pollLimitWindow
	}
	return &pollLimiter{
		lastHit: make(map[string]time.Time),
		now:     now,
		window:  window,
	}
}

func (l *pollLimiter) Allow(sessionID string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastHit[sessionID]; ok {
		if now.Sub(last) < l.window {
			return false
		}
	}
	l.lastHit[sessionID] = now
	return true
}

func (l *pollLimiter) RetryAfterSeconds() int {
	if l == nil {
		return 0
	}
	seconds := int(l.window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
