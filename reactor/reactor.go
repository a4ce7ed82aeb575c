// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface and event batch.

package reactor

import (
	"time"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-relay/api"
)

// NoTimeout makes Poll block until at least one event is ready.
const NoTimeout time.Duration = -1

// DefaultMaxEvents bounds one Poll call.
const DefaultMaxEvents = 128

// Reactor defines the readiness multiplexer used by the relay loop.
type Reactor interface {
	// Register starts monitoring fd and reports its readiness under tok.
	// Errors wrap api.ErrRegistration.
	Register(fd int, tok api.Token, interest api.Interest) error

	// Deregister stops monitoring the descriptor registered under tok.
	Deregister(tok api.Token) error

	// Poll blocks until a registered descriptor is ready or timeout elapses
	// and appends the ready events to batch in the order the OS returned them.
	Poll(batch *Batch, timeout time.Duration) error

	// Close releases the OS poller.
	Close() error
}

// Batch is the FIFO of events produced by one Poll.
type Batch struct {
	q *queue.Queue
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{q: queue.New()}
}

// Push appends ev.
func (b *Batch) Push(ev api.Event) { b.q.Add(ev) }

// Pop removes the oldest event.
func (b *Batch) Pop() (api.Event, bool) {
	if b.q.Length() == 0 {
		return api.Event{}, false
	}
	return b.q.Remove().(api.Event), true
}

// Len returns the number of queued events.
func (b *Batch) Len() int { return b.q.Length() }

// Reset drops any queued events.
func (b *Batch) Reset() {
	for b.q.Length() > 0 {
		b.q.Remove()
	}
}
