package main

import (
	"fmt"

	"github.com/leandrodaf/noteclock/internal/logger"
	"github.com/leandrodaf/noteclock/internal/wire"
	"github.com/leandrodaf/noteclock/sdk/clock"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func main() {
	log := logger.NewDevelopmentLogger()

	cycle := 0
	engine, err := clock.NewEngine(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithSink(contracts.SinkFunc(func(msgs []contracts.TransportMessage) {
			for _, m := range msgs {
				fmt.Printf("cycle %d  offset %4d  %s\n", cycle, m.Offset, wire.Describe(m))
			}
		})),
	)
	if err != nil {
		log.Error("Failed to create engine", log.Field().Error("error", err))
		return
	}

	const frames = 512
	info := contracts.TransportInfo{Playing: true, Tempo: 120, SampleRate: 48000}
	outputs := [][]float32{make([]float32, frames), make([]float32, frames)}

	// Hold a note for four buffers, then release it.
	script := map[int][]contracts.HostEvent{
		0: {{Data: contracts.Cell{0x90, 36, 100}, Offset: 64}},
		4: {{Data: contracts.Cell{0x80, 36, 0}, Offset: 128}},
	}
	for cycle = 0; cycle < 8; cycle++ {
		if events, ok := script[cycle]; ok {
			engine.ProcessEvents(events)
		}
		engine.Process(outputs, frames, info)
	}

	s := engine.Stats()
	log.Info("Done",
		log.Field().Uint64("cycles", s.Cycles),
		log.Field().Uint64("flushed", s.Flushed),
		log.Field().Uint64("dropped", s.Dropped))
}
