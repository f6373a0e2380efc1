package host

import (
	"context"
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"

	"github.com/leandrodaf/noteclock/internal/wire"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// QueueSink hands flushed batches from the processing goroutine to a
// Dispatcher. SendEvents never blocks: messages that do not fit in the
// queue are counted and dropped.
type QueueSink struct {
	queue   chan contracts.TransportMessage
	dropped atomic.Uint64
}

func NewQueueSink(size int) *QueueSink {
	return &QueueSink{queue: make(chan contracts.TransportMessage, size)}
}

func (q *QueueSink) SendEvents(msgs []contracts.TransportMessage) {
	for _, m := range msgs {
		select {
		case q.queue <- m:
		default:
			q.dropped.Add(1)
		}
	}
}

// Dropped is the number of messages refused because the queue was full.
func (q *QueueSink) Dropped() uint64 { return q.dropped.Load() }

// Publisher receives every dispatched message, e.g. a monitor.
type Publisher interface {
	Publish(msg contracts.TransportMessage)
}

// Dispatcher forwards queued messages to a MIDI output port and to
// publishers, off the processing goroutine.
type Dispatcher struct {
	logger     contracts.Logger
	sink       *QueueSink
	send       func(midi.Message) error
	publishers []Publisher
}

// NewDispatcher creates a dispatcher reading from sink. send may be nil when
// there is no output port.
func NewDispatcher(logger contracts.Logger, sink *QueueSink, send func(midi.Message) error, publishers ...Publisher) *Dispatcher {
	return &Dispatcher{
		logger:     logger,
		sink:       sink,
		send:       send,
		publishers: publishers,
	}
}

// Run dispatches until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-d.sink.queue:
			d.dispatch(m)
		}
	}
}

func (d *Dispatcher) dispatch(m contracts.TransportMessage) {
	msg := wire.Message(m)
	if msg == nil {
		d.logger.Warn("Unknown transport message", d.logger.Field().Int("kind", int(m.Kind)))
		return
	}
	if m.Kind != contracts.ClockPulse {
		d.logger.Debug("Transport message",
			d.logger.Field().String("msg", msg.String()),
			d.logger.Field().Int("offset", m.Offset))
	}
	if d.send != nil {
		if err := d.send(msg); err != nil {
			d.logger.Error("Failed to send MIDI message",
				d.logger.Field().String("msg", msg.String()),
				d.logger.Field().Error("error", err))
		}
	}
	for _, p := range d.publishers {
		p.Publish(m)
	}
}
