// Package transport turns note presses and releases into transport control
// messages.
//
// The tracker is a two-state machine: silent (no held presses) and sounding.
// Start fires on the silent-to-sounding edge, Stop on the way back, and every
// press also selects its voice.
package transport

import "github.com/leandrodaf/noteclock/sdk/contracts"

// State is the persistent tracker state.
type State struct {
	Polyphony uint32 // Presses without a matching release.
	LastVoice uint8  // Voice of the most recent press.
}

// Sounding reports whether at least one press is held.
func (s State) Sounding() bool { return s.Polyphony > 0 }

// Emitted holds the 0-2 messages produced by a single note event.
type Emitted struct {
	Msgs [2]contracts.TransportMessage
	N    int
	// Dropped counts messages that would have been emitted but did not fit.
	Dropped int
}

// Slice returns the emitted messages in order.
func (e *Emitted) Slice() []contracts.TransportMessage { return e.Msgs[:e.N] }

// Handle applies ev to s. spare is the free room left in the outgoing batch.
//
// A press needs room for two messages; when there is less, neither is
// emitted but the press is still counted. A release at zero polyphony is
// ignored.
func Handle(s *State, ev contracts.NoteEvent, spare int) Emitted {
	var out Emitted
	switch ev.Kind {
	case contracts.Press:
		wasSilent := s.Polyphony == 0
		s.LastVoice = ev.Voice
		s.Polyphony++

		want := 1
		if wasSilent {
			want = 2
		}
		if spare < 2 {
			out.Dropped = want
			return out
		}
		out.Msgs[0] = contracts.TransportMessage{
			Kind:    contracts.SelectVoice,
			Channel: ev.Channel & 0x0F,
			Voice:   ev.Voice & 0x7F,
			Offset:  ev.Offset,
		}
		out.N = 1
		if wasSilent {
			out.Msgs[1] = contracts.TransportMessage{Kind: contracts.Start, Offset: ev.Offset}
			out.N = 2
		}

	case contracts.Release:
		if s.Polyphony == 0 {
			return out
		}
		s.Polyphony--
		if s.Polyphony != 0 {
			return out
		}
		if spare < 1 {
			out.Dropped = 1
			return out
		}
		out.Msgs[0] = contracts.TransportMessage{Kind: contracts.Stop, Offset: ev.Offset}
		out.N = 1
	}
	return out
}
