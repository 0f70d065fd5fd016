// Package clock tracks frame time.
package clock

import (
	"time"

	"github.com/plus3/cubeview/ecs"
)

// Clock is the world's time resource. Delta is the time between the two most
// recent Advance calls, or between construction and the first call.
type Clock struct {
	Start time.Time
	Last  time.Time
	Delta time.Duration

	now func() time.Time
}

// New creates a clock started at now.
func New(now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	return Clock{Start: now(), now: now}
}

// Advance records a sample taken at now. A sample earlier than the previous
// one yields a zero delta.
func (c *Clock) Advance(now time.Time) {
	prev := c.Start
	if !c.Last.IsZero() {
		prev = c.Last
	}
	c.Delta = max(now.Sub(prev), 0)
	c.Last = now
}

// Tick advances the clock with its own time source.
func (c *Clock) Tick() {
	if c.now == nil {
		c.now = time.Now
	}
	c.Advance(c.now())
}

// DeltaSeconds returns Delta in seconds.
func (c *Clock) DeltaSeconds() float32 {
	return float32(c.Delta.Seconds())
}

// Elapsed returns the time from Start to the last sample.
func (c *Clock) Elapsed() time.Duration {
	if c.Last.IsZero() {
		return 0
	}
	return c.Last.Sub(c.Start)
}

// System advances the Clock singleton once per tick.
type System struct {
	Clock ecs.Singleton[Clock]
}

func (s *System) Execute(frame *ecs.UpdateFrame) error {
	if c := s.Clock.Get(); c != nil {
		c.Tick()
	}
	return nil
}
