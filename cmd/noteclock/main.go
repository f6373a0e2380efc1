// Command noteclock runs the note clock engine as a standalone MIDI device:
// notes from a live input start and stop the transport, and the engine's
// messages go to a MIDI output port and an optional websocket monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"github.com/leandrodaf/noteclock/internal/config"
	"github.com/leandrodaf/noteclock/internal/host"
	"github.com/leandrodaf/noteclock/internal/logger"
	"github.com/leandrodaf/noteclock/internal/monitor"
	"github.com/leandrodaf/noteclock/sdk/clock"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file")
		listDevices = flag.Bool("list-devices", false, "list MIDI inputs and outputs and exit")
		tempo       = flag.Float64("tempo", 0, "override the configured tempo (BPM)")
		inputDevice = flag.Int("input", -2, "override the live input device index (-1 disables)")
		outputPort  = flag.String("output", "", "override the MIDI output port name")
		audio       = flag.Bool("audio", false, "pace the engine from the audio device")
	)
	flag.Parse()

	log := logger.NewZapLogger()
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", log.Field().Error("error", err))
		os.Exit(1)
	}
	if *tempo != 0 {
		cfg.Host.Tempo = *tempo
	}
	if *inputDevice != -2 {
		cfg.MIDI.InputDevice = *inputDevice
	}
	if *outputPort != "" {
		cfg.MIDI.OutputPort = *outputPort
	}
	if *audio {
		cfg.Host.Audio = true
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid config", log.Field().Error("error", err))
		os.Exit(1)
	}

	if *listDevices {
		if err := printDevices(log, cfg); err != nil {
			log.Error("Failed to list devices", log.Field().Error("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(log, cfg); err != nil {
		log.Error("Note clock stopped with error", log.Field().Error("error", err))
		log.Sync()
		os.Exit(1)
	}
}

func engineOptions(log contracts.Logger, cfg *config.Config, sink contracts.Sink) []contracts.Option {
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(cfg.LogLevel()),
		contracts.WithCapacity(cfg.Engine.Capacity),
		contracts.WithOutputChannels(cfg.Host.OutputChannels),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: cfg.MIDI.ClientName}),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}),
	}
	if cfg.Log.File != "" {
		opts = append(opts, contracts.WithLogFilePath(cfg.Log.File))
	}
	if sink != nil {
		opts = append(opts, contracts.WithSink(sink))
	}
	return opts
}

func printDevices(log contracts.Logger, cfg *config.Config) error {
	defer midi.CloseDriver()

	fmt.Println("MIDI outputs:")
	for i, port := range midi.GetOutPorts() {
		fmt.Printf("  [%d] %s\n", i, port.String())
	}

	client, err := clock.NewInputClient(engineOptions(log, cfg, nil)...)
	if errors.Is(err, clock.ErrUnsupportedOS) {
		fmt.Println("Live MIDI input is not supported on this platform.")
		return nil
	}
	if err != nil {
		return err
	}
	defer client.Stop()

	devices, err := client.ListDevices()
	if err != nil {
		return err
	}
	fmt.Println("MIDI inputs:")
	for _, d := range devices {
		fmt.Printf("  [%d] %s (%s)\n", d.ID, d.Name, d.Manufacturer)
	}
	return nil
}

func run(log contracts.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := host.NewQueueSink(cfg.Host.DispatchQueue)
	eng, err := clock.NewEngine(engineOptions(log, cfg, queue)...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	var input chan contracts.InputMessage
	var inputClient contracts.InputClient
	if cfg.MIDI.InputDevice >= 0 {
		inputClient, err = clock.NewInputClient(engineOptions(log, cfg, queue)...)
		if err != nil {
			return fmt.Errorf("create input client: %w", err)
		}
		if err := inputClient.SelectDevice(cfg.MIDI.InputDevice); err != nil {
			inputClient.Stop()
			return fmt.Errorf("select input device: %w", err)
		}
		input = make(chan contracts.InputMessage, cfg.MIDI.InputBuffer)
	}

	h, err := host.New(log, eng, input, host.Config{
		BlockSize:      cfg.Host.BufferSize,
		OutputChannels: cfg.Host.OutputChannels,
		MaxEvents:      cfg.Engine.Capacity,
		Transport:      cfg.TransportInfo(),
	})
	if err != nil {
		if inputClient != nil {
			inputClient.Stop()
		}
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.Error("Shutdown failed", log.Field().Error("error", err))
		}
	}()
	if inputClient != nil {
		h.OnClose(inputClient.Stop)
		inputClient.StartCapture(input)
	}

	var send func(midi.Message) error
	if cfg.MIDI.OutputPort != "" {
		out, err := midi.FindOutPort(cfg.MIDI.OutputPort)
		if err != nil {
			return fmt.Errorf("find output port %q: %w", cfg.MIDI.OutputPort, err)
		}
		send, err = midi.SendTo(out)
		if err != nil {
			return fmt.Errorf("open output port %q: %w", cfg.MIDI.OutputPort, err)
		}
		h.OnClose(func() error {
			midi.CloseDriver()
			return nil
		})
		log.Info("MIDI output connected", log.Field().String("port", out.String()))
	}

	var publishers []host.Publisher
	if cfg.Monitor.Addr != "" {
		b := monitor.NewBroadcaster(log, monitor.Config{
			Throttle:      cfg.Monitor.Throttle,
			StatsInterval: cfg.Monitor.StatsInterval,
			MaxClients:    cfg.Monitor.MaxClients,
			ClientBuffer:  cfg.Monitor.Buffer,
		}, monitor.HelloPayload{
			Effect:  clock.EffectName,
			Vendor:  clock.VendorName,
			Version: clock.VendorVersion,
		}, eng.Stats)
		publishers = append(publishers, b)

		mux := http.NewServeMux()
		mux.Handle("/ws", b.Handler())
		srv := &http.Server{Addr: cfg.Monitor.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Monitor server failed", log.Field().Error("error", err))
			}
		}()
		h.OnClose(func() error {
			b.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		log.Info("Monitor listening", log.Field().String("addr", cfg.Monitor.Addr))
	}

	go host.NewDispatcher(log, queue, send, publishers...).Run(ctx)
	go h.ReportStats(ctx, cfg.Log.StatsInterval)

	if !cfg.Host.Audio {
		return h.Run(ctx)
	}

	player, err := host.NewPlayer(cfg.Host.SampleRate, h)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	h.OnClose(player.Stop)
	player.Play()
	log.Info("Audio stream started", log.Field().Int("sampleRate", cfg.Host.SampleRate))
	<-ctx.Done()
	return nil
}
