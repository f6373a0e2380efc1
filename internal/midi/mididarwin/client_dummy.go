//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the placeholder client.
var ErrUnavailable = errors.New("CoreMIDI input is not available on this platform")

// DummyInputClient stands in for the CoreMIDI client on other systems.
type DummyInputClient struct {
	logger contracts.Logger
}

func NewInputClient(options *contracts.EngineOptions) (contracts.InputClient, error) {
	options.Logger.Info("Using dummy MIDI input client for non-macOS system")
	return &DummyInputClient{logger: options.Logger}, nil
}

func (m *DummyInputClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI input client")
	return nil, ErrUnavailable
}

func (m *DummyInputClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI input client")
	return ErrUnavailable
}

func (m *DummyInputClient) StartCapture(eventChannel chan contracts.InputMessage) {
	m.logger.Warn("StartCapture called on dummy MIDI input client")
}

func (m *DummyInputClient) Stop() error {
	return nil
}
