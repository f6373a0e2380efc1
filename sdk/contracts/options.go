package contracts

// MIDICommand is the status nibble of a channel message, used for input filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// DefaultCapacity is the number of outgoing messages a single cycle can hold.
const DefaultCapacity = 64

// MIDIEventFilter restricts which MIDI commands a live input client forwards.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to forward.
}

// Allows reports whether status passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(status byte) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Commands {
		if status&0xF0 == byte(c) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// EngineOptions defines the configuration of an engine and its input clients.
type EngineOptions struct {
	Logger          Logger           // Logger for lifecycle events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	Capacity        int              // Batch capacity, fixed for the engine lifetime.
	OutputChannels  int              // Audio output channels the host provides.
	Sink            Sink             // Receives each flushed batch.
	MIDIEventFilter *MIDIEventFilter // Commands forwarded by live input clients.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies EngineOptions.
type Option func(*EngineOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *EngineOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *EngineOptions) {
		opts.LogLevel = level
	}
}

// WithLogFilePath sends log output to the given file.
func WithLogFilePath(path string) Option {
	return func(opts *EngineOptions) {
		opts.LogFilePath = path
	}
}

// WithCapacity sets the maximum number of messages emitted per cycle.
func WithCapacity(n int) Option {
	return func(opts *EngineOptions) {
		opts.Capacity = n
	}
}

// WithOutputChannels sets the number of audio output channels.
func WithOutputChannels(n int) Option {
	return func(opts *EngineOptions) {
		opts.OutputChannels = n
	}
}

// WithSink sets the receiver of flushed batches.
func WithSink(s Sink) Option {
	return func(opts *EngineOptions) {
		opts.Sink = s
	}
}

// WithMIDIEventFilter sets the MIDI event filter for live input clients.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *EngineOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *EngineOptions) {
		opts.CoreMIDIConfig = &config
	}
}
