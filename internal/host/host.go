// Package host runs the engine outside a plugin host. It plays the host's
// role: it owns the transport, collects live input into per-buffer events,
// and calls the engine once per block.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrInvalidTransport is returned for a non-positive tempo or sample rate.
var ErrInvalidTransport = errors.New("invalid transport")

// Config describes the simulated host.
type Config struct {
	BlockSize      int
	OutputChannels int
	MaxEvents      int // Input events accepted per block; the rest wait for the next one.
	Transport      contracts.TransportInfo
}

// Host drives an engine block by block. Cycle must only be called from one
// goroutine at a time; the transport setters are safe from any goroutine.
type Host struct {
	logger contracts.Logger
	engine contracts.Engine
	input  <-chan contracts.InputMessage

	blockSize int
	events    []contracts.HostEvent
	outputs   [][]float32

	mu        sync.Mutex
	transport contracts.TransportInfo

	closers []func() error
}

// New creates a host for engine. input may be nil when there is no live
// input device.
func New(logger contracts.Logger, engine contracts.Engine, input <-chan contracts.InputMessage, cfg Config) (*Host, error) {
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", cfg.BlockSize)
	}
	if err := validateTransport(cfg.Transport); err != nil {
		return nil, err
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = contracts.DefaultCapacity
	}

	outputs := make([][]float32, cfg.OutputChannels)
	for i := range outputs {
		outputs[i] = make([]float32, cfg.BlockSize)
	}
	return &Host{
		logger:    logger,
		engine:    engine,
		input:     input,
		blockSize: cfg.BlockSize,
		events:    make([]contracts.HostEvent, 0, cfg.MaxEvents),
		outputs:   outputs,
		transport: cfg.Transport,
	}, nil
}

func validateTransport(info contracts.TransportInfo) error {
	if info.Tempo <= 0 {
		return fmt.Errorf("%w: tempo %v", ErrInvalidTransport, info.Tempo)
	}
	if info.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidTransport, info.SampleRate)
	}
	return nil
}

// BlockSize is the number of frames per cycle.
func (h *Host) BlockSize() int { return h.blockSize }

// Transport returns the current transport snapshot.
func (h *Host) Transport() contracts.TransportInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transport
}

// SetPlaying starts or stops the transport from the next cycle on.
func (h *Host) SetPlaying(playing bool) {
	h.mu.Lock()
	h.transport.Playing = playing
	h.mu.Unlock()
	h.logger.Info("Transport changed", h.logger.Field().Bool("playing", playing))
}

// SetTempo changes the tempo from the next cycle on.
func (h *Host) SetTempo(bpm float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := h.transport
	next.Tempo = bpm
	if err := validateTransport(next); err != nil {
		return err
	}
	h.transport = next
	return nil
}

// Cycle runs one block: pending input becomes events at offset 0, then the
// engine processes the block with the current transport.
func (h *Host) Cycle() { h.cycle(h.blockSize) }

func (h *Host) cycle(frames int) {
	h.events = h.events[:0]
	if h.input != nil {
	drain:
		for len(h.events) < cap(h.events) {
			select {
			case msg := <-h.input:
				h.events = append(h.events, contracts.HostEvent{Data: msg.Data})
			default:
				break drain
			}
		}
	}
	if len(h.events) > 0 {
		h.engine.ProcessEvents(h.events)
	}
	h.engine.Process(h.outputs, frames, h.Transport())
}

// Process fills dst with interleaved stereo frames taken from the first two
// engine outputs. A request that is not a multiple of the block size ends
// with a shorter cycle.
func (h *Host) Process(dst []float32) {
	frames := len(dst) / 2
	for done := 0; done < frames; {
		n := min(h.blockSize, frames-done)
		h.cycle(n)
		for i := 0; i < n; i++ {
			l, r := h.sample(0, i), h.sample(1, i)
			dst[(done+i)*2] = l
			dst[(done+i)*2+1] = r
		}
		done += n
	}
}

func (h *Host) sample(ch, i int) float32 {
	if ch >= len(h.outputs) {
		if len(h.outputs) == 0 {
			return 0
		}
		ch = len(h.outputs) - 1
	}
	return h.outputs[ch][i]
}

// Run paces cycles in real time with a ticker until ctx is done. It is the
// driver used when no audio device is requested.
func (h *Host) Run(ctx context.Context) error {
	info := h.Transport()
	period := time.Duration(float64(h.blockSize) / info.SampleRate * float64(time.Second))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	h.logger.Info("Host running",
		h.logger.Field().Int("blockSize", h.blockSize),
		h.logger.Field().Float64("sampleRate", info.SampleRate),
		h.logger.Field().Float64("tempo", info.Tempo))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Cycle()
		}
	}
}

// ReportStats logs the engine counters every interval until ctx is done.
func (h *Host) ReportStats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := h.engine.Stats()
			h.logger.Info("Engine stats",
				h.logger.Field().Uint64("cycles", s.Cycles),
				h.logger.Field().Uint64("flushed", s.Flushed),
				h.logger.Field().Uint64("dropped", s.Dropped),
				h.logger.Field().Int("polyphony", int(s.Polyphony)))
		}
	}
}

// OnClose registers fn to run on Close, in reverse registration order.
func (h *Host) OnClose(fn func() error) {
	h.closers = append(h.closers, fn)
}

// Close runs the registered closers and returns all their errors combined.
func (h *Host) Close() error {
	var err error
	for i := len(h.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, h.closers[i]())
	}
	h.closers = nil
	return err
}
