package viewer

import "time"

// Clock accumulates elapsed time from its creation. It is never reset and
// never goes backwards, even if the time source does.
type Clock struct {
	now   func() time.Time
	start time.Time
	last  float64
}

// NewClock starts a clock. A nil now uses time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, start: now()}
}

// ElapsedTime returns seconds since the clock started.
func (c *Clock) ElapsedTime() float64 {
	e := c.now().Sub(c.start).Seconds()
	if e < c.last {
		e = c.last
	}
	c.last = e
	return e
}
