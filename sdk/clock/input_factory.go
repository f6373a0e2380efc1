package clock

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/noteclock/internal/midi/mididarwin"
	"github.com/leandrodaf/noteclock/internal/midi/midiwindows"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrUnsupportedOS is returned when live MIDI input is not available on the running OS.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// inputInitializers maps OS names to live input client initializers.
var inputInitializers = map[string]func(*contracts.EngineOptions) (contracts.InputClient, error){
	"darwin":  mididarwin.NewInputClient,  // CoreMIDI.
	"windows": midiwindows.NewInputClient, // WinMM.
}

// NewInputClient creates a live MIDI input client for the current operating
// system, configured with the same options as the engine.
func NewInputClient(opts ...contracts.Option) (contracts.InputClient, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	if initializer, exists := inputInitializers[runtime.GOOS]; exists {
		return initializer(&options)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
