//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/noteclock/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

// portConnection is the part of a CoreMIDI port connection the client needs.
type portConnection interface {
	Disconnect()
}

// InputClient captures note messages from a CoreMIDI source and hands them
// to the host as raw cells.
type InputClient struct {
	logger          contracts.Logger
	eventChannel    atomic.Value // chan contracts.InputMessage
	client          coremidi.Client
	inputPort       coremidi.InputPort
	portConn        portConnection
	midiEventFilter *contracts.MIDIEventFilter
	mu              sync.Mutex
	capturing       bool
	wg              sync.WaitGroup
	stopOnce        sync.Once
}

// NewInputClient creates a CoreMIDI client named after options.CoreMIDIConfig.
func NewInputClient(options *contracts.EngineOptions) (contracts.InputClient, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI input client created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &InputClient{
		logger:          options.Logger,
		client:          client,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices returns the CoreMIDI sources.
func (m *InputClient) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at deviceID, dropping any previous connection.
func (m *InputClient) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %d", ErrInvalidMIDIDevice, deviceID)
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.inputPort, err = coremidi.NewInputPort(m.client, "Note Input", m.handlePacket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	conn, err := m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	m.portConn = conn
	return nil
}

// handlePacket runs on the CoreMIDI thread. It never blocks: when the host
// has not drained the channel the message is dropped.
func (m *InputClient) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.InputMessage)
	if eventChannel == nil {
		return
	}
	if len(packet.Data) < 3 {
		m.logger.Warn(ErrIncompleteMIDIPacket.Error())
		return
	}
	if !m.midiEventFilter.Allows(packet.Data[0]) {
		return
	}

	msg := contracts.InputMessage{
		Timestamp: uint64(time.Now().UnixNano()),
		Data:      contracts.Cell{packet.Data[0], packet.Data[1], packet.Data[2]},
	}
	select {
	case eventChannel <- msg:
	default:
		m.logger.Warn("Input buffer full; dropping MIDI message")
	}
}

// StartCapture starts delivering captured messages to eventChannel.
func (m *InputClient) StartCapture(eventChannel chan contracts.InputMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.capturing {
		m.logger.Warn("Capture already started; switching channel")
	}

	m.eventChannel.Store(eventChannel)
	m.capturing = true
	m.logger.Info("MIDI capture started")
}

// Stop disconnects from the device and waits for in-flight callbacks. It
// only runs once.
func (m *InputClient) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.capturing = false
		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		// An unread channel keeps late callbacks from writing to the host's.
		m.eventChannel.Store(make(chan contracts.InputMessage))
		m.wg.Wait()
		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
