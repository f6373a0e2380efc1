package contracts

// NoteKind tells a press from a release.
type NoteKind uint8

const (
	// Press is a note-on.
	Press NoteKind = iota + 1
	// Release is a note-off.
	Release
)

// NoteEvent is a decoded note press or release inside the current buffer.
type NoteEvent struct {
	Kind    NoteKind // Press or Release.
	Channel uint8    // Input channel, 0-15.
	Voice   uint8    // Note number, forwarded as the program number on press (0-127).
	Offset  int      // Sample offset within the current buffer.
}

// MessageKind identifies an outgoing transport message.
type MessageKind uint8

const (
	// Start is the transport start message (0xFA).
	Start MessageKind = iota + 1
	// Stop is the transport stop message (0xFC).
	Stop
	// SelectVoice is a program change (0xC0 + channel, program).
	SelectVoice
	// ClockPulse is one of 24 timing-clock messages per quarter note (0xF8).
	ClockPulse
)

func (k MessageKind) String() string {
	switch k {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case SelectVoice:
		return "select_voice"
	case ClockPulse:
		return "clock"
	}
	return "unknown"
}

// TransportMessage is an outgoing message scheduled at a sample offset of the
// buffer being processed. Channel and Voice are only meaningful for SelectVoice.
type TransportMessage struct {
	Kind    MessageKind
	Channel uint8
	Voice   uint8
	Offset  int
}

// Cell is a 4-byte MIDI message slot as exchanged with the host.
type Cell [4]byte

// HostEvent is a raw MIDI event delivered by the host for the current buffer.
type HostEvent struct {
	Data   Cell // Status byte, data bytes, padding.
	Offset int  // Delta frames into the current buffer.
}

// TransportInfo is the host's transport snapshot for one processing cycle.
type TransportInfo struct {
	Playing    bool    // Host transport is rolling.
	Tempo      float64 // Beats per minute, positive.
	SampleRate float64 // Hz, positive.
}

// Sink receives the flushed batch of a processing cycle, in emission order.
// The slice is only valid for the duration of the call.
type Sink interface {
	SendEvents(msgs []TransportMessage)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msgs []TransportMessage)

// SendEvents calls f(msgs).
func (f SinkFunc) SendEvents(msgs []TransportMessage) { f(msgs) }

// EngineStats is a snapshot of the engine counters. Safe to read from any goroutine.
type EngineStats struct {
	Cycles    uint64 // Processing cycles completed.
	Flushed   uint64 // Messages delivered to the sink.
	Dropped   uint64 // Messages refused because the batch was full.
	Polyphony uint32 // Currently held presses.
}

// Engine is the per-buffer timing engine driven by a host.
type Engine interface {
	// ProcessEvents decodes raw host events and feeds note messages to the
	// transport tracker. It returns the number of note events accepted.
	ProcessEvents(events []HostEvent) int
	// HandleNoteEvents feeds already decoded note events.
	HandleNoteEvents(events []NoteEvent)
	// Process renders clock pulses, flushes the batch to the sink and writes
	// silence to every output channel.
	Process(outputs [][]float32, frames int, info TransportInfo)
	// Stats returns the current counters.
	Stats() EngineStats
}

// InputMessage is a raw MIDI message captured from a live input device.
type InputMessage struct {
	Timestamp uint64 // Capture time, Unix nanoseconds.
	Data      Cell   // Status byte and data bytes.
}

// InputClient captures note messages from a live MIDI device.
type InputClient interface {
	Stop() error                                 // Stops capture and releases resources.
	ListDevices() ([]DeviceInfo, error)          // Lists all available MIDI sources.
	SelectDevice(deviceID int) error             // Connects to a source by its index.
	StartCapture(eventChannel chan InputMessage) // Delivers captured messages to eventChannel.
}
