// Package config loads the standalone host configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Host    HostConfig    `yaml:"host"`
	Engine  EngineConfig  `yaml:"engine"`
	MIDI    MIDIConfig    `yaml:"midi"`
	Log     LogConfig     `yaml:"log"`
	Monitor MonitorConfig `yaml:"monitor"`
}

// HostConfig describes the simulated host transport and audio callback.
type HostConfig struct {
	SampleRate     int     `yaml:"sample_rate"`
	BufferSize     int     `yaml:"buffer_size"`
	OutputChannels int     `yaml:"output_channels"`
	Tempo          float64 `yaml:"tempo"`
	Playing        bool    `yaml:"playing"`
	DispatchQueue  int     `yaml:"dispatch_queue"` // Messages waiting for the output port.
	// Audio drives cycles from the system audio device; otherwise a ticker
	// paces them.
	Audio bool `yaml:"audio"`
}

type EngineConfig struct {
	Capacity int `yaml:"capacity"`
}

type MIDIConfig struct {
	InputDevice int    `yaml:"input_device"` // -1 disables live input.
	OutputPort  string `yaml:"output_port"`  // Empty disables the output port.
	ClientName  string `yaml:"client_name"`
	InputBuffer int    `yaml:"input_buffer"`
}

type LogConfig struct {
	Level         string        `yaml:"level"`
	File          string        `yaml:"file"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

type MonitorConfig struct {
	Addr          string        `yaml:"addr"`   // Empty disables the websocket monitor.
	Buffer        int           `yaml:"buffer"` // Frames queued per client.
	MaxClients    int           `yaml:"max_clients"`
	Throttle      time.Duration `yaml:"throttle"`
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Host: HostConfig{
			SampleRate:     48000,
			BufferSize:     512,
			OutputChannels: 2,
			Tempo:          120,
			Playing:        true,
			DispatchQueue:  1024,
		},
		Engine: EngineConfig{Capacity: contracts.DefaultCapacity},
		MIDI: MIDIConfig{
			InputDevice: -1,
			ClientName:  "Note Clock",
			InputBuffer: 256,
		},
		Log: LogConfig{
			Level:         "info",
			StatsInterval: 10 * time.Second,
		},
		Monitor: MonitorConfig{
			Buffer:        64,
			MaxClients:    8,
			Throttle:      50 * time.Millisecond,
			StatsInterval: time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the engine takes as preconditions. Tempo and
// sample rate are only checked here, never on the audio thread.
func (c *Config) Validate() error {
	switch {
	case c.Host.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate must be positive, got %d", ErrInvalid, c.Host.SampleRate)
	case c.Host.BufferSize <= 0:
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalid, c.Host.BufferSize)
	case c.Host.OutputChannels < 0:
		return fmt.Errorf("%w: output_channels must not be negative, got %d", ErrInvalid, c.Host.OutputChannels)
	case c.Host.Tempo <= 0:
		return fmt.Errorf("%w: tempo must be positive, got %v", ErrInvalid, c.Host.Tempo)
	case c.Engine.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalid, c.Engine.Capacity)
	case c.Host.DispatchQueue <= 0:
		return fmt.Errorf("%w: dispatch_queue must be positive, got %d", ErrInvalid, c.Host.DispatchQueue)
	case c.MIDI.InputBuffer <= 0:
		return fmt.Errorf("%w: input_buffer must be positive, got %d", ErrInvalid, c.MIDI.InputBuffer)
	case c.Monitor.Buffer <= 0:
		return fmt.Errorf("%w: monitor buffer must be positive, got %d", ErrInvalid, c.Monitor.Buffer)
	}
	if _, err := contracts.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LogLevel returns the parsed log level; Validate has already checked it.
func (c *Config) LogLevel() contracts.LogLevel {
	l, _ := contracts.ParseLogLevel(c.Log.Level)
	return l
}

// TransportInfo is the initial host transport described by the config.
func (c *Config) TransportInfo() contracts.TransportInfo {
	return contracts.TransportInfo{
		Playing:    c.Host.Playing,
		Tempo:      c.Host.Tempo,
		SampleRate: float64(c.Host.SampleRate),
	}
}
