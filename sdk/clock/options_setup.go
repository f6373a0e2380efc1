package clock

import (
	"fmt"

	"github.com/leandrodaf/noteclock/internal/logger"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// applyDefaultOptions sets default values for EngineOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify EngineOptions.
//
// Returns:
//   - contracts.EngineOptions: The finalized options with defaults applied.
//   - error: An error if the log file cannot be opened.
func applyDefaultOptions(opts ...contracts.Option) (contracts.EngineOptions, error) {
	options := &contracts.EngineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.Capacity == 0 {
		options.Capacity = contracts.DefaultCapacity
	}
	if options.OutputChannels == 0 {
		options.OutputChannels = NumOutputs
	}
	if options.MIDIEventFilter == nil {
		options.MIDIEventFilter = &contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: EffectName}
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return *options, fmt.Errorf("log destination: %w", err)
		}
	}
	return *options, nil
}
