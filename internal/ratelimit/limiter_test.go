package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestAllowWindowing(t *testing.T) {
	clock := newClock()
	l := NewWithClock(clock.Now)

	got := []bool{
		l.Allow("user-1", ActionCreateArgument, 2, time.Minute),
		l.Allow("user-1", ActionCreateArgument, 2, time.Minute),
		l.Allow("user-1", ActionCreateArgument, 2, time.Minute),
	}
	assert.Equal(t, []bool{true, true, false}, got)

	// Exactly at the window boundary the window is still active.
	clock.Advance(time.Minute)
	assert.False(t, l.Allow("user-1", ActionCreateArgument, 2, time.Minute))

	clock.Advance(time.Millisecond)
	assert.True(t, l.Allow("user-1", ActionCreateArgument, 2, time.Minute))
	assert.True(t, l.Allow("user-1", ActionCreateArgument, 2, time.Minute))
	assert.False(t, l.Allow("user-1", ActionCreateArgument, 2, time.Minute))
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := NewWithClock(newClock().Now)

	assert.True(t, l.Allow("user-1", ActionRate, 1, time.Minute))
	assert.False(t, l.Allow("user-1", ActionRate, 1, time.Minute))

	assert.True(t, l.Allow("user-2", ActionRate, 1, time.Minute), "other subject")
	assert.True(t, l.Allow("user-1", ActionAnalyze, 1, time.Minute), "other action")
}

func TestDeniedAttemptsDoNotExtendWindow(t *testing.T) {
	clock := newClock()
	l := NewWithClock(clock.Now)

	assert.True(t, l.Allow("u", ActionSteelman, 1, 10*time.Second))
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		assert.False(t, l.Allow("u", ActionSteelman, 1, 10*time.Second))
	}
	clock.Advance(6 * time.Second)
	assert.True(t, l.Allow("u", ActionSteelman, 1, 10*time.Second))
}

func TestSweep(t *testing.T) {
	clock := newClock()
	l := NewWithClock(clock.Now)

	l.Allow("a", ActionRate, 5, time.Minute)
	l.Allow("b", ActionCreateDebate, 5, time.Hour)
	assert.Equal(t, 2, l.Len())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Len())
}

func TestAllowConcurrent(t *testing.T) {
	l := NewWithClock(newClock().Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", ActionCreateArgument, 10, time.Minute) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}
