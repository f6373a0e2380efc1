// Package wire converts between host MIDI cells and engine types.
package wire

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// Status bytes of the messages the engine emits.
const (
	StatusClock         byte = 0xF8
	StatusStart         byte = 0xFA
	StatusStop          byte = 0xFC
	StatusProgramChange byte = 0xC0
)

// Decode parses a host event into a note event. Only note-on (0x90-0x9F)
// and note-off (0x80-0x8F) on any channel are recognised; a note-on is a
// press whatever its velocity. Decode does not allocate.
func Decode(ev contracts.HostEvent) (contracts.NoteEvent, bool) {
	status := ev.Data[0]
	out := contracts.NoteEvent{Channel: status & 0x0F, Voice: ev.Data[1] & 0x7F, Offset: ev.Offset}
	switch status & 0xF0 {
	case byte(contracts.NoteOn):
		out.Kind = contracts.Press
	case byte(contracts.NoteOff):
		out.Kind = contracts.Release
	default:
		return contracts.NoteEvent{}, false
	}
	return out, true
}

// Cell copies a gomidi message into a host cell, truncating past 4 bytes.
func Cell(msg midi.Message) contracts.Cell {
	var c contracts.Cell
	copy(c[:], msg)
	return c
}

// Encode returns the 4-byte cell of m. It does not allocate and is safe on
// the audio thread.
func Encode(m contracts.TransportMessage) contracts.Cell {
	switch m.Kind {
	case contracts.Start:
		return contracts.Cell{StatusStart}
	case contracts.Stop:
		return contracts.Cell{StatusStop}
	case contracts.ClockPulse:
		return contracts.Cell{StatusClock}
	case contracts.SelectVoice:
		return contracts.Cell{StatusProgramChange | m.Channel&0x0F, m.Voice & 0x7F}
	}
	return contracts.Cell{}
}

// Message builds the gomidi message for m, for sending on an output port.
// It allocates and belongs off the audio thread.
func Message(m contracts.TransportMessage) midi.Message {
	switch m.Kind {
	case contracts.Start:
		return midi.Start()
	case contracts.Stop:
		return midi.Stop()
	case contracts.ClockPulse:
		return midi.TimingClock()
	case contracts.SelectVoice:
		return midi.ProgramChange(m.Channel&0x0F, m.Voice&0x7F)
	}
	return nil
}

// Describe renders m for logs and monitors.
func Describe(m contracts.TransportMessage) string {
	if msg := Message(m); msg != nil {
		return msg.String()
	}
	return m.Kind.String()
}
