// Package timebase provides the 16-bit millisecond time base and the
// fixed-capacity periodic callback table used by the node.
package timebase

import (
	"sync"
	"time"
)

// Millis is a wrapping millisecond counter. Only differences between two
// values are meaningful; never compare absolute values.
type Millis uint16

// Since returns the milliseconds elapsed from start to now, correct
// across a single wrap of the counter.
func Since(now, start Millis) Millis {
	return now - start
}

// Clock provides the current time base value.
type Clock interface {
	Now() Millis
}

// ClockFunc is the func form of Clock.
type ClockFunc func() Millis

// Now implements Clock.
func (f ClockFunc) Now() Millis {
	return f()
}

// Monotonic derives the time base from the process monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a Monotonic clock starting at 0.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now implements Clock.
func (c *Monotonic) Now() Millis {
	return Millis(time.Since(c.start) / time.Millisecond)
}

// Manual is a clock advanced explicitly, for simulation and tests.
type Manual struct {
	lock sync.Mutex
	now  Millis
}

// Now implements Clock.
func (c *Manual) Now() Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Set sets the current value.
func (c *Manual) Set(v Millis) {
	c.lock.Lock()
	c.now = v
	c.lock.Unlock()
}

// Advance moves the clock forward by ms.
func (c *Manual) Advance(ms int) Millis {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now += Millis(ms)
	return c.now
}
