// Package ratelimit implements a fixed-window counter keyed by subject and action.
package ratelimit

import (
	"sync"
	"time"
)

// Action names used by the mutation gate.
const (
	ActionCreateArgument = "create_argument"
	ActionCreateDebate   = "create_debate"
	ActionRate           = "rate"
	ActionAnalyze        = "analyze"
	ActionSteelman       = "steelman"
)

type key struct {
	subject string
	action  string
}

type window struct {
	count     int
	startedAt time.Time
	length    time.Duration
}

// Limiter is process-local. Create one per engine; tests create their own.
type Limiter struct {
	mu      sync.Mutex
	windows map[key]*window
	now     func() time.Time
}

func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock lets tests drive time explicitly.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		windows: make(map[key]*window),
		now:     now,
	}
}

// Allow records an attempt for (subjectID, action) and reports whether it is
// within maxCount per window. A denied attempt does not count.
func (l *Limiter) Allow(subjectID, action string, maxCount int, length time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	k := key{subject: subjectID, action: action}
	w, ok := l.windows[k]
	if !ok || now.Sub(w.startedAt) > length {
		l.windows[k] = &window{count: 1, startedAt: now, length: length}
		return true
	}
	if w.count >= maxCount {
		return false
	}
	w.count++
	w.length = length
	return true
}

// Sweep drops windows that have already elapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for k, w := range l.windows {
		if now.Sub(w.startedAt) > w.length {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked windows.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
