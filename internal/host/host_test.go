package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"

	"github.com/leandrodaf/noteclock/internal/engine"
	"github.com/leandrodaf/noteclock/internal/logger"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

type capture struct {
	msgs []contracts.TransportMessage
}

func (c *capture) SendEvents(msgs []contracts.TransportMessage) {
	c.msgs = append(c.msgs, msgs...)
}

var stopped = contracts.TransportInfo{Tempo: 120, SampleRate: 48000}

func newHost(t *testing.T, input <-chan contracts.InputMessage, cfg Config) (*Host, *engine.Driver, *capture) {
	t.Helper()
	sink := &capture{}
	d, err := engine.New(contracts.EngineOptions{Capacity: 16, Sink: sink})
	if err != nil {
		t.Fatal(err)
	}
	h, err := New(logger.NewNopLogger(), d, input, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return h, d, sink
}

func TestNewValidates(t *testing.T) {
	d, err := engine.New(contracts.EngineOptions{Capacity: 4, Sink: &capture{}})
	if err != nil {
		t.Fatal(err)
	}
	log := logger.NewNopLogger()
	if _, err := New(log, d, nil, Config{BlockSize: 0, Transport: stopped}); err == nil {
		t.Error("zero block size accepted")
	}
	if _, err := New(log, d, nil, Config{BlockSize: 64, Transport: contracts.TransportInfo{SampleRate: 48000}}); !errors.Is(err, ErrInvalidTransport) {
		t.Errorf("zero tempo err = %v", err)
	}
	if _, err := New(log, d, nil, Config{BlockSize: 64, Transport: contracts.TransportInfo{Tempo: 120}}); !errors.Is(err, ErrInvalidTransport) {
		t.Errorf("zero sample rate err = %v", err)
	}
}

func TestCycleDrainsInput(t *testing.T) {
	input := make(chan contracts.InputMessage, 8)
	h, d, sink := newHost(t, input, Config{BlockSize: 128, MaxEvents: 1, Transport: stopped})

	input <- contracts.InputMessage{Data: contracts.Cell{0x91, 64, 90}}
	input <- contracts.InputMessage{Data: contracts.Cell{0x81, 64, 0}}

	h.Cycle()
	want := []contracts.TransportMessage{
		{Kind: contracts.SelectVoice, Channel: 1, Voice: 64},
		{Kind: contracts.Start},
	}
	if len(sink.msgs) != len(want) {
		t.Fatalf("after cycle 1 got %+v", sink.msgs)
	}
	for i := range want {
		if sink.msgs[i] != want[i] {
			t.Errorf("msg %d = %+v, want %+v", i, sink.msgs[i], want[i])
		}
	}

	// The release did not fit in the first block.
	h.Cycle()
	if len(sink.msgs) != 3 || sink.msgs[2].Kind != contracts.Stop {
		t.Fatalf("after cycle 2 got %+v", sink.msgs)
	}
	if s := d.Stats(); s.Cycles != 2 || s.Polyphony != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestProcessSplitsIntoBlocks(t *testing.T) {
	h, d, _ := newHost(t, nil, Config{BlockSize: 512, OutputChannels: 2, Transport: stopped})

	dst := make([]float32, 2*(512+100))
	for i := range dst {
		dst[i] = 1
	}
	h.Process(dst)

	if got := d.Stats().Cycles; got != 2 {
		t.Errorf("cycles = %d, want 2", got)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want silence", i, v)
		}
	}
}

func TestProcessPulsesFollowFrames(t *testing.T) {
	h, _, sink := newHost(t, nil, Config{BlockSize: 512, Transport: stopped})
	h.SetPlaying(true)

	// 2000 samples per pulse at 120 BPM and 48 kHz.
	h.Process(make([]float32, 2*4096))
	pulses := 0
	for _, m := range sink.msgs {
		if m.Kind == contracts.ClockPulse {
			pulses++
		}
	}
	if pulses != 3 {
		t.Errorf("pulses = %d, want 3", pulses)
	}
}

func TestSetTempo(t *testing.T) {
	h, _, _ := newHost(t, nil, Config{BlockSize: 64, Transport: stopped})
	if err := h.SetTempo(0); !errors.Is(err, ErrInvalidTransport) {
		t.Errorf("err = %v", err)
	}
	if h.Transport().Tempo != 120 {
		t.Error("invalid tempo was applied")
	}
	if err := h.SetTempo(90); err != nil {
		t.Fatal(err)
	}
	if h.Transport().Tempo != 90 {
		t.Errorf("tempo = %v", h.Transport().Tempo)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	h, d, _ := newHost(t, nil, Config{BlockSize: 48, Transport: stopped})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := h.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if d.Stats().Cycles == 0 {
		t.Error("no cycles ran")
	}
}

func TestCloseCombinesErrors(t *testing.T) {
	h, _, _ := newHost(t, nil, Config{BlockSize: 64, Transport: stopped})
	var order []int
	errA, errB := errors.New("a"), errors.New("b")
	h.OnClose(func() error { order = append(order, 1); return errA })
	h.OnClose(func() error { order = append(order, 2); return nil })
	h.OnClose(func() error { order = append(order, 3); return errB })

	err := h.Close()
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("close order = %v", order)
	}
	if errs := multierr.Errors(err); len(errs) != 2 {
		t.Fatalf("errors = %v", errs)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("err = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

type countingSource struct{ frames int }

func (s *countingSource) Process(dst []float32) {
	s.frames += len(dst) / 2
	for i := range dst {
		dst[i] = 0.5
	}
}

func TestStreamReader(t *testing.T) {
	src := &countingSource{}
	r := NewStreamReader(src)

	p := make([]byte, 8*300+3)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 8*300 || src.frames != 300 {
		t.Fatalf("n = %d, frames = %d", n, src.frames)
	}
	// 0.5 as little-endian float32.
	if p[0] != 0x00 || p[1] != 0x00 || p[2] != 0x00 || p[3] != 0x3F {
		t.Errorf("first sample bytes = % x", p[:4])
	}
	if n, _ := r.Read(make([]byte, 7)); n != 0 {
		t.Errorf("short read = %d", n)
	}
}

type chanPublisher chan contracts.TransportMessage

func (c chanPublisher) Publish(m contracts.TransportMessage) { c <- m }

func TestDispatcher(t *testing.T) {
	q := NewQueueSink(2)
	q.SendEvents([]contracts.TransportMessage{
		{Kind: contracts.SelectVoice, Channel: 2, Voice: 10},
		{Kind: contracts.Start},
		{Kind: contracts.ClockPulse},
	})
	if q.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", q.Dropped())
	}

	sent := make(chan midi.Message, 4)
	pub := make(chanPublisher, 4)
	d := NewDispatcher(logger.NewNopLogger(), q, func(m midi.Message) error {
		sent <- m
		return nil
	}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	var ch, prog uint8
	first := <-sent
	if !first.GetProgramChange(&ch, &prog) || ch != 2 || prog != 10 {
		t.Errorf("first sent = %v", first)
	}
	if second := <-sent; !second.Is(midi.StartMsg) {
		t.Errorf("second sent = %v", second)
	}
	if m := <-pub; m.Kind != contracts.SelectVoice {
		t.Errorf("published %+v", m)
	}
	if m := <-pub; m.Kind != contracts.Start {
		t.Errorf("published %+v", m)
	}

	cancel()
	<-done
}
