//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the placeholder client.
var ErrUnavailable = errors.New("WinMM input is not available on this platform")

type dummyInputClient struct {
	logger contracts.Logger
}

// NewInputClient initializes a placeholder input client for non-Windows systems.
func NewInputClient(options *contracts.EngineOptions) (contracts.InputClient, error) {
	options.Logger.Info("Using dummy MIDI input client for non-Windows system")
	return &dummyInputClient{logger: options.Logger}, nil
}

// ListDevices reports that WinMM is unavailable.
func (m *dummyInputClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI input client")
	return nil, ErrUnavailable
}

// SelectDevice reports that WinMM is unavailable.
func (m *dummyInputClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI input client")
	return ErrUnavailable
}

// StartCapture logs and does nothing.
func (m *dummyInputClient) StartCapture(eventChannel chan contracts.InputMessage) {
	m.logger.Warn("StartCapture called on dummy MIDI input client")
}

// Stop does nothing.
func (m *dummyInputClient) Stop() error {
	return nil
}
