// Package batch holds the outgoing messages of one processing cycle.
package batch

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrInvalidCapacity is returned when a batch is created with capacity < 1.
var ErrInvalidCapacity = errors.New("batch capacity must be positive")

// Batch is a fixed-capacity, append-only list of transport messages. Storage
// is reserved once by New; Append and Flush never allocate.
//
// A Batch is owned by a single processing goroutine. Only the counters may be
// read concurrently.
type Batch struct {
	msgs    []contracts.TransportMessage
	n       int
	dropped atomic.Uint64
	flushed atomic.Uint64
}

// New returns an empty batch able to hold capacity messages.
func New(capacity int) (*Batch, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Batch{msgs: make([]contracts.TransportMessage, capacity)}, nil
}

// Append adds msg at the end of the batch. It returns false and leaves the
// batch untouched when the batch is full.
func (b *Batch) Append(msg contracts.TransportMessage) bool {
	if b.n == len(b.msgs) {
		b.dropped.Add(1)
		return false
	}
	b.msgs[b.n] = msg
	b.n++
	return true
}

// Flush delivers every pending message to sink in order and empties the
// batch. An empty batch is not delivered.
func (b *Batch) Flush(sink contracts.Sink) {
	if b.n == 0 {
		return
	}
	sink.SendEvents(b.msgs[:b.n])
	b.flushed.Add(uint64(b.n))
	b.n = 0
}

// Len returns the number of pending messages.
func (b *Batch) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *Batch) Cap() int { return len(b.msgs) }

// Spare returns how many more messages fit.
func (b *Batch) Spare() int { return len(b.msgs) - b.n }

// IsEmpty reports whether no message is pending.
func (b *Batch) IsEmpty() bool { return b.n == 0 }

// Dropped returns the number of messages refused since creation.
func (b *Batch) Dropped() uint64 { return b.dropped.Load() }

// Flushed returns the number of messages delivered since creation.
func (b *Batch) Flushed() uint64 { return b.flushed.Load() }

// NoteDropped records n messages that were refused before reaching Append,
// so that all backpressure is reported through one counter.
func (b *Batch) NoteDropped(n int) {
	if n > 0 {
		b.dropped.Add(uint64(n))
	}
}
