package ctrl

import (
	"sort"
	"sync"
	"time"
)

// A Clock tells the current time and schedules callbacks. The scheduler
// never reads the ambient wall clock directly, so cycle timing and the
// time-of-day demand bias are testable without real delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// A Timer is a scheduled callback that can be stopped.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already
	// fired or was stopped.
	Stop() bool
}

// WallClock is the production Clock backed by the system clock.
type WallClock struct{}

func (WallClock) Now() time.Time {
	return time.Now()
}

func (WallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// VirtualClock is a Clock that only moves when it is advanced. It drives
// deterministic tests and as-fast-as-possible headless runs.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*virtualTimer
}

// NewVirtualClock creates a virtual clock starting at the given instant.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *VirtualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &virtualTimer{
		clock: c,
		due:   c.now.Add(d),
		f:     f,
	}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the clock forward, firing every due callback in time order.
// Callbacks run with the clock set to their due instant, so a callback that
// schedules another callback keeps a consistent timeline.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.popDueTimer(target)
		if t == nil {
			break
		}

		c.now = t.due

		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// popDueTimer removes and returns the earliest live timer due at or before
// the target, or nil if none is due. The caller must hold the lock.
func (c *VirtualClock) popDueTimer(target time.Time) *virtualTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live

	if len(c.timers) == 0 {
		return nil
	}

	sort.SliceStable(c.timers, func(i, j int) bool {
		return c.timers[i].due.Before(c.timers[j].due)
	})

	t := c.timers[0]
	if t.due.After(target) {
		return nil
	}

	c.timers = c.timers[1:]
	t.fired = true

	return t
}

type virtualTimer struct {
	clock   *VirtualClock
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}

	t.stopped = true

	return true
}
