package wire

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		data   contracts.Cell
		want   contracts.NoteEvent
		wantOK bool
	}{
		{"note on ch1", Cell(midi.NoteOn(0, 60, 100)), contracts.NoteEvent{Kind: contracts.Press, Channel: 0, Voice: 60, Offset: 7}, true},
		{"note on ch16", contracts.Cell{0x9F, 12, 1}, contracts.NoteEvent{Kind: contracts.Press, Channel: 15, Voice: 12, Offset: 7}, true},
		{"note on zero velocity", contracts.Cell{0x93, 64, 0}, contracts.NoteEvent{Kind: contracts.Press, Channel: 3, Voice: 64, Offset: 7}, true},
		{"note off", Cell(midi.NoteOffVelocity(5, 64, 40)), contracts.NoteEvent{Kind: contracts.Release, Channel: 5, Voice: 64, Offset: 7}, true},
		{"control change", Cell(midi.ControlChange(0, 7, 100)), contracts.NoteEvent{}, false},
		{"clock", Cell(midi.TimingClock()), contracts.NoteEvent{}, false},
		{"empty", contracts.Cell{}, contracts.NoteEvent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(contracts.HostEvent{Data: tt.data, Offset: 7})
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("Decode = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeMatchesProtocolBytes(t *testing.T) {
	tests := []struct {
		msg  contracts.TransportMessage
		want contracts.Cell
	}{
		{contracts.TransportMessage{Kind: contracts.Start}, contracts.Cell{0xFA}},
		{contracts.TransportMessage{Kind: contracts.Stop}, contracts.Cell{0xFC}},
		{contracts.TransportMessage{Kind: contracts.ClockPulse}, contracts.Cell{0xF8}},
		{contracts.TransportMessage{Kind: contracts.SelectVoice, Channel: 2, Voice: 60}, contracts.Cell{0xC2, 60}},
	}
	for _, tt := range tests {
		got := Encode(tt.msg)
		if got != tt.want {
			t.Errorf("Encode(%v) = % X, want % X", tt.msg.Kind, got, tt.want)
		}
		// The port-side encoding must carry the same bytes.
		msg := Message(tt.msg)
		if !bytes.Equal(msg.Bytes(), got[:len(msg)]) {
			t.Errorf("Message(%v) = % X, want prefix of % X", tt.msg.Kind, msg.Bytes(), got)
		}
	}
}

func TestMessageTypes(t *testing.T) {
	if !Message(contracts.TransportMessage{Kind: contracts.ClockPulse}).Is(midi.TimingClockMsg) {
		t.Error("clock pulse is not a timing clock message")
	}
	var ch, prog uint8
	if !Message(contracts.TransportMessage{Kind: contracts.SelectVoice, Channel: 9, Voice: 33}).GetProgramChange(&ch, &prog) {
		t.Fatal("select voice is not a program change")
	}
	if ch != 9 || prog != 33 {
		t.Errorf("program change ch=%d prog=%d, want 9 and 33", ch, prog)
	}
	if Message(contracts.TransportMessage{}) != nil {
		t.Error("unknown kind produced a message")
	}
}

func TestDecodeDoesNotAllocate(t *testing.T) {
	ev := contracts.HostEvent{Data: contracts.Cell{0x90, 60, 100}}
	allocs := testing.AllocsPerRun(100, func() {
		Decode(ev)
	})
	if allocs != 0 {
		t.Fatalf("allocs per run = %v, want 0", allocs)
	}
}
