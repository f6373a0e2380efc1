// Package engine runs one processing cycle of the note clock: note events go
// through the transport tracker, clock pulses are scheduled for the buffer,
// and the resulting batch is flushed to the host.
package engine

import (
	"errors"
	"sync/atomic"

	"github.com/leandrodaf/noteclock/internal/batch"
	"github.com/leandrodaf/noteclock/internal/pulse"
	"github.com/leandrodaf/noteclock/internal/transport"
	"github.com/leandrodaf/noteclock/internal/wire"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrNoSink is returned when an engine is created without a sink.
var ErrNoSink = errors.New("engine requires a sink")

// Driver is the per-buffer engine. Every method except Stats must be called
// from the host's processing goroutine.
type Driver struct {
	logger contracts.Logger
	sink   contracts.Sink
	batch  *batch.Batch
	state  transport.State
	phase  pulse.Phase
	pulses []int

	cycles    atomic.Uint64
	polyphony atomic.Uint32
}

// New builds a driver from fully defaulted options. All memory the
// processing path needs is reserved here.
func New(opts contracts.EngineOptions) (*Driver, error) {
	if opts.Sink == nil {
		return nil, ErrNoSink
	}
	b, err := batch.New(opts.Capacity)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		logger: opts.Logger,
		sink:   opts.Sink,
		batch:  b,
		pulses: make([]int, 0, opts.Capacity),
	}
	if d.logger != nil {
		d.logger.Info("Engine created",
			d.logger.Field().Int("capacity", opts.Capacity),
			d.logger.Field().Int("outputChannels", opts.OutputChannels))
	}
	return d, nil
}

// ProcessEvents decodes raw host events and handles the note messages among
// them. Anything else is ignored.
func (d *Driver) ProcessEvents(events []contracts.HostEvent) int {
	accepted := 0
	for i := range events {
		ev, ok := wire.Decode(events[i])
		if !ok {
			continue
		}
		d.handle(ev)
		accepted++
	}
	return accepted
}

// HandleNoteEvents handles decoded note events in order.
func (d *Driver) HandleNoteEvents(events []contracts.NoteEvent) {
	for i := range events {
		d.handle(events[i])
	}
}

func (d *Driver) handle(ev contracts.NoteEvent) {
	out := transport.Handle(&d.state, ev, d.batch.Spare())
	for _, m := range out.Slice() {
		d.batch.Append(m)
	}
	d.batch.NoteDropped(out.Dropped)
	d.polyphony.Store(d.state.Polyphony)
}

// Process completes the cycle for a buffer of frames samples: it silences
// the outputs, appends this buffer's clock pulses after the note messages,
// and flushes everything to the sink.
func (d *Driver) Process(outputs [][]float32, frames int, info contracts.TransportInfo) {
	for _, out := range outputs {
		if frames < len(out) {
			out = out[:frames]
		}
		clear(out)
	}

	offsets, dropped := pulse.Render(&d.phase, frames, info, d.pulses[:0:d.batch.Spare()])
	for _, off := range offsets {
		d.batch.Append(contracts.TransportMessage{Kind: contracts.ClockPulse, Offset: off})
	}
	d.batch.NoteDropped(dropped)

	d.batch.Flush(d.sink)
	d.cycles.Add(1)
}

// Stats returns the engine counters. Safe to call from any goroutine.
func (d *Driver) Stats() contracts.EngineStats {
	return contracts.EngineStats{
		Cycles:    d.cycles.Load(),
		Flushed:   d.batch.Flushed(),
		Dropped:   d.batch.Dropped(),
		Polyphony: d.polyphony.Load(),
	}
}

// TransportState returns a copy of the tracker state.
func (d *Driver) TransportState() transport.State { return d.state }

// ClockPhase returns a copy of the scheduler phase.
func (d *Driver) ClockPhase() pulse.Phase { return d.phase }
