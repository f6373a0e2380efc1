package monitor

import (
	"encoding/hex"

	"github.com/leandrodaf/noteclock/internal/wire"
	"github.com/leandrodaf/noteclock/sdk/contracts"
)

type MessageType string

const (
	MsgHello MessageType = "hello"
	MsgBatch MessageType = "batch"
	MsgStats MessageType = "stats"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type HelloPayload struct {
	Effect  string `json:"effect"`
	Vendor  string `json:"vendor"`
	Version int    `json:"version"`
}

// TransportPayload is one dispatched transport message.
type TransportPayload struct {
	Kind    string `json:"kind"`
	Channel uint8  `json:"channel,omitempty"`
	Voice   uint8  `json:"voice,omitempty"`
	Offset  int    `json:"offset"`
	Bytes   string `json:"bytes"`
	Text    string `json:"text"`
}

type BatchPayload struct {
	Messages []TransportPayload `json:"messages"`
	Pulses   int                `json:"pulses"` // Clock pulses folded out of Messages.
}

type StatsPayload struct {
	Cycles    uint64          `json:"cycles"`
	Flushed   uint64          `json:"flushed"`
	Dropped   uint64          `json:"dropped"`
	Polyphony uint32          `json:"polyphony"`
	Process   *ProcessPayload `json:"process,omitempty"`
}

func newTransportPayload(m contracts.TransportMessage) TransportPayload {
	p := TransportPayload{
		Kind:   m.Kind.String(),
		Offset: m.Offset,
		Text:   wire.Describe(m),
	}
	n := 1
	if m.Kind == contracts.SelectVoice {
		p.Channel, p.Voice = m.Channel, m.Voice
		n = 2
	}
	cell := wire.Encode(m)
	p.Bytes = hex.EncodeToString(cell[:n])
	return p
}

func newStatsPayload(s contracts.EngineStats, proc *ProcessPayload) StatsPayload {
	return StatsPayload{
		Cycles:    s.Cycles,
		Flushed:   s.Flushed,
		Dropped:   s.Dropped,
		Polyphony: s.Polyphony,
		Process:   proc,
	}
}
