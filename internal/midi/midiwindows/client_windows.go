//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/noteclock/sdk/contracts"
	"golang.org/x/sys/windows"
)

// winmm flags and callback messages, from mmsystem.h.
const (
	callbackFunction = 0x00030000
	midiIOStatus     = 0x00000020

	mimOpen      = 0x3C1
	mimClose     = 0x3C2
	mimData      = 0x3C3
	mimError     = 0x3C5
	mimLongError = 0x3C6
	mimMoreData  = 0x3CC
)

var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrNoDeviceSelected  = errors.New("no MIDI device selected")
	ErrInvalidMIDIHandle = errors.New("invalid MIDI device handle")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
)

var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// One callback trampoline serves every client; windows.NewCallback slots
// are limited and never released.
var inputCallback = windows.NewCallback(midiInCallback)

type midiInCaps struct {
	mid           uint16
	pid           uint16
	driverVersion uint32
	name          [32]uint16
	support       uint32
}

// InputClient captures note messages from a WinMM input device.
type InputClient struct {
	logger contracts.Logger
	filter *contracts.MIDIEventFilter

	mu     sync.Mutex
	handle windows.Handle
	events atomic.Value // chan contracts.InputMessage
}

// NewInputClient creates a WinMM input client.
func NewInputClient(options *contracts.EngineOptions) (contracts.InputClient, error) {
	options.Logger.Info("MIDI input client created", options.Logger.Field().String("backend", "winmm"))
	return &InputClient{
		logger: options.Logger,
		filter: options.MIDIEventFilter,
	}, nil
}

// ListDevices lists the WinMM input devices.
func (m *InputClient) ListDevices() ([]contracts.DeviceInfo, error) {
	n, _, _ := procMidiInGetNumDevs.Call()
	if n == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, n)
	for id := 0; id < int(n); id++ {
		var caps midiInCaps
		if rc, _, _ := procMidiInGetDevCaps.Call(uintptr(id), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps)); rc != 0 {
			m.logger.Warn("Skipping MIDI device without capabilities", m.logger.Field().Int("deviceID", id))
			continue
		}
		name := windows.UTF16ToString(caps.name[:])
		devices = append(devices, contracts.DeviceInfo{
			ID:           id,
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("MID %d / PID %d", caps.mid, caps.pid),
		})
	}
	return devices, nil
}

// SelectDevice opens the input device at deviceID, closing any open one.
func (m *InputClient) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, _, _ := procMidiInGetNumDevs.Call(); deviceID < 0 || deviceID >= int(n) {
		return fmt.Errorf("%w: %d", ErrInvalidMIDIDevice, deviceID)
	}
	if m.handle != 0 {
		if err := m.closeLocked(); err != nil {
			return fmt.Errorf("close previous device: %w", err)
		}
	}

	var h windows.Handle
	rc, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&h)),
		uintptr(deviceID),
		inputCallback,
		uintptr(unsafe.Pointer(m)),
		callbackFunction|midiIOStatus,
	)
	if rc != 0 {
		m.logger.Error("Failed to open MIDI device",
			m.logger.Field().Int("deviceID", deviceID),
			m.logger.Field().Error("error", err))
		return fmt.Errorf("midiInOpen %d: %w", deviceID, err)
	}
	m.handle = h
	m.logger.Info("MIDI device selected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// StartCapture starts the device and delivers captured messages to eventChannel.
func (m *InputClient) StartCapture(eventChannel chan contracts.InputMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == 0 {
		m.logger.Error(ErrNoDeviceSelected.Error())
		return
	}
	m.events.Store(eventChannel)
	if rc, _, err := procMidiInStart.Call(uintptr(m.handle)); rc != 0 {
		m.logger.Error("Failed to start MIDI capture", m.logger.Field().Error("error", err))
		return
	}
	m.logger.Info("MIDI capture started")
}

// Stop stops capture and closes the device.
func (m *InputClient) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == 0 {
		return nil
	}
	if err := m.closeLocked(); err != nil {
		return fmt.Errorf("failed to stop MIDI capture: %w", err)
	}
	m.logger.Info("MIDI capture stopped")
	return nil
}

func (m *InputClient) closeLocked() error {
	if m.handle == 0 {
		return ErrInvalidMIDIHandle
	}
	if rc, _, err := procMidiInStop.Call(uintptr(m.handle)); rc != 0 {
		return fmt.Errorf("midiInStop: %w", err)
	}
	if rc, _, err := procMidiInClose.Call(uintptr(m.handle)); rc != 0 {
		return fmt.Errorf("midiInClose: %w", err)
	}
	m.handle = 0
	// An unread channel keeps late callbacks away from the host's.
	m.events.Store(make(chan contracts.InputMessage))
	return nil
}

// deliver forwards a short message packed as status | data1<<8 | data2<<16.
// It runs on a winmm thread and never blocks.
func (m *InputClient) deliver(packed uintptr) {
	status := byte(packed)
	if !m.filter.Allows(status) {
		return
	}
	ch, _ := m.events.Load().(chan contracts.InputMessage)
	if ch == nil {
		return
	}
	msg := contracts.InputMessage{
		Timestamp: uint64(time.Now().UnixNano()),
		Data:      contracts.Cell{status, byte(packed >> 8), byte(packed >> 16)},
	}
	select {
	case ch <- msg:
	default:
		m.logger.Warn("Input buffer full; dropping MIDI message")
	}
}

func midiInCallback(_ uintptr, msg uint32, instance, param1, _ uintptr) uintptr {
	m := (*InputClient)(unsafe.Pointer(instance))
	switch msg {
	case mimData:
		m.deliver(param1)
	case mimOpen, mimClose, mimMoreData:
	case mimError, mimLongError:
		m.logger.Error("MIDI input error", m.logger.Field().Int("msg", int(msg)))
	default:
		m.logger.Warn("Unknown MIDI input message", m.logger.Field().Int("msg", int(msg)))
	}
	return 0
}
