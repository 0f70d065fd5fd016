package input

import "github.com/plus3/cubeview/ecs"

// KeyboardEvents is a double-buffered event queue. The host calls Send between
// ticks; Swap, run at the start of each tick, publishes everything sent since
// the previous swap and drops what was published before. An event is
// therefore readable during exactly one tick.
type KeyboardEvents struct {
	pending []KeyboardEvent
	current []KeyboardEvent
}

// Send queues an event for the next tick.
func (q *KeyboardEvents) Send(ev KeyboardEvent) {
	q.pending = append(q.pending, ev)
}

// Swap publishes pending events.
func (q *KeyboardEvents) Swap() {
	q.current, q.pending = q.pending, q.current[:0]
}

// Read returns the events published for this tick, in the order they were sent.
// The slice is only valid until the next Swap.
func (q *KeyboardEvents) Read() []KeyboardEvent {
	return q.current
}

// Pending returns the number of events waiting for the next swap.
func (q *KeyboardEvents) Pending() int {
	return len(q.pending)
}

// SwapSystem publishes queued keyboard events. It belongs in the first stage.
type SwapSystem struct {
	Events ecs.Singleton[KeyboardEvents]
}

func (s *SwapSystem) Execute(frame *ecs.UpdateFrame) error {
	if q := s.Events.Get(); q != nil {
		q.Swap()
	}
	return nil
}
