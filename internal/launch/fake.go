package launch

import "time"

// FakeClock is a virtual Clock for tests. Sleep advances virtual time
// instantly and fires any callbacks scheduled inside the slept
// interval, which lets a test press buttons or inject encoder edges
// "while" the control loop is blocked.
type FakeClock struct {
	now       time.Time
	scheduled []scheduledCall
}

type scheduledCall struct {
	at time.Time
	fn func()
}

// NewFakeClock creates a FakeClock at the given start time.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current virtual time.
func (c *FakeClock) Now() time.Time {
	return c.now
}

// Sleep advances virtual time by d. Callbacks scheduled at or before
// the new deadline fire in time order, with virtual time positioned at
// each callback's scheduled instant. Callbacks may schedule further
// callbacks but must not call Sleep.
func (c *FakeClock) Sleep(d time.Duration) {
	deadline := c.now.Add(d)
	for {
		idx := -1
		for i, sc := range c.scheduled {
			if sc.at.After(deadline) {
				continue
			}
			if idx == -1 || sc.at.Before(c.scheduled[idx].at) {
				idx = i
			}
		}
		if idx == -1 {
			break
		}
		sc := c.scheduled[idx]
		c.scheduled = append(c.scheduled[:idx], c.scheduled[idx+1:]...)
		if sc.at.After(c.now) {
			c.now = sc.at
		}
		sc.fn()
	}
	c.now = deadline
}

// Schedule registers fn to fire when virtual time reaches at. A time
// already in the past fires on the next Sleep.
func (c *FakeClock) Schedule(at time.Time, fn func()) {
	c.scheduled = append(c.scheduled, scheduledCall{at: at, fn: fn})
}
