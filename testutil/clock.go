package testutil

import (
	"sync"
	"time"
)

// ManualClock is a simulated clock that only moves on Advance. It also
// schedules repeating callbacks against simulated time, so it can stand in
// for both stream.Clock and stream.Scheduler.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	interval  time.Duration
	next      time.Time
	fn        func()
	cancelled bool
}

// NewManualClock 创建从 start 开始的手动时钟
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the simulated time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// ScheduleRepeatedly registers fn to run every interval of simulated time.
func (c *ManualClock) ScheduleRepeatedly(interval time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &manualTimer{interval: interval, next: c.now.Add(interval), fn: fn}
	c.timers = append(c.timers, timer)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		timer.cancelled = true
	}
}

// Advance moves simulated time forward by d, firing due callbacks in time
// order. Callbacks run without the clock lock held and observe Now equal
// to their due time.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.nextDueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		c.mu.Unlock()

		fn()
	}
}

// ActiveTimers returns the number of callbacks not yet cancelled.
func (c *ManualClock) ActiveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.cancelled {
			n++
		}
	}
	return n
}

func (c *ManualClock) nextDueLocked(target time.Time) *manualTimer {
	var due *manualTimer
	for _, timer := range c.timers {
		if timer.cancelled || timer.next.After(target) {
			continue
		}
		if due == nil || timer.next.Before(due.next) {
			due = timer
		}
	}
	return due
}
