// Package clock is the public entry point of the note clock engine.
package clock

import (
	"github.com/leandrodaf/noteclock/internal/engine"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// NewEngine creates a note clock engine with the specified options.
// It applies default options and reserves all memory the processing cycle
// will need.
//
// opts ...contracts.Option: A variadic list of option functions; WithSink is required.
//
// Returns:
//   - contracts.Engine: The engine, ready for the host's processing callback.
//   - error: An error if the options are invalid or the log destination cannot be opened.
func NewEngine(opts ...contracts.Option) (contracts.Engine, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	d, err := engine.New(options)
	if err != nil {
		return nil, err
	}

	return d, nil
}
