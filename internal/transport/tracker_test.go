package transport

import (
	"math/rand"
	"testing"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

func press(ch, voice uint8, offset int) contracts.NoteEvent {
	return contracts.NoteEvent{Kind: contracts.Press, Channel: ch, Voice: voice, Offset: offset}
}

func release(ch, voice uint8, offset int) contracts.NoteEvent {
	return contracts.NoteEvent{Kind: contracts.Release, Channel: ch, Voice: voice, Offset: offset}
}

func kinds(msgs []contracts.TransportMessage) []contracts.MessageKind {
	out := make([]contracts.MessageKind, len(msgs))
	for i, m := range msgs {
		out[i] = m.Kind
	}
	return out
}

func equalKinds(a, b []contracts.MessageKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSinglePressRelease(t *testing.T) {
	var s State

	e := Handle(&s, press(0, 60, 10), 64)
	got := e.Slice()
	if !equalKinds(kinds(got), []contracts.MessageKind{contracts.SelectVoice, contracts.Start}) {
		t.Fatalf("press emitted %v, want select then start", kinds(got))
	}
	if got[0].Voice != 60 || got[0].Channel != 0 || got[0].Offset != 10 || got[1].Offset != 10 {
		t.Fatalf("unexpected press messages %+v", got)
	}
	if s.Polyphony != 1 || s.LastVoice != 60 {
		t.Fatalf("state = %+v", s)
	}

	e = Handle(&s, release(0, 60, 300), 64)
	got = e.Slice()
	if !equalKinds(kinds(got), []contracts.MessageKind{contracts.Stop}) || got[0].Offset != 300 {
		t.Fatalf("release emitted %+v, want stop at 300", got)
	}
	if s.Sounding() {
		t.Fatal("still sounding after release")
	}
}

func TestOverlappingPresses(t *testing.T) {
	var s State
	var all []contracts.TransportMessage
	for _, ev := range []contracts.NoteEvent{
		press(0, 60, 0),
		press(0, 64, 5),
		release(0, 60, 10),
		release(0, 64, 20),
	} {
		e := Handle(&s, ev, 64)
		all = append(all, e.Slice()...)
	}
	want := []contracts.MessageKind{
		contracts.SelectVoice, contracts.Start,
		contracts.SelectVoice,
		contracts.Stop,
	}
	if !equalKinds(kinds(all), want) {
		t.Fatalf("emitted %v, want %v", kinds(all), want)
	}
	if all[2].Voice != 64 {
		t.Fatalf("second select voice = %d, want 64", all[2].Voice)
	}
	if all[3].Offset != 20 {
		t.Fatalf("stop offset = %d, want 20", all[3].Offset)
	}
}

func TestReleaseWithoutPressIsIgnored(t *testing.T) {
	var s State
	e := Handle(&s, release(3, 1, 0), 64)
	if e.N != 0 || e.Dropped != 0 || s.Polyphony != 0 {
		t.Fatalf("release on silent tracker: %+v state %+v", e, s)
	}
}

func TestReleaseCountsPressesNotVoices(t *testing.T) {
	var s State
	Handle(&s, press(0, 60, 0), 64)
	Handle(&s, press(0, 64, 0), 64)
	e := Handle(&s, release(0, 99, 0), 64)
	if e.N != 0 || s.Polyphony != 1 {
		t.Fatalf("after one release: emitted %d, polyphony %d", e.N, s.Polyphony)
	}
}

func TestChannelComesFromInput(t *testing.T) {
	var s State
	e := Handle(&s, press(9, 36, 0), 64)
	if e.Msgs[0].Channel != 9 {
		t.Fatalf("channel = %d, want 9", e.Msgs[0].Channel)
	}
}

func TestPressWithoutRoomDropsBoth(t *testing.T) {
	var s State
	e := Handle(&s, press(0, 60, 0), 1)
	if e.N != 0 || e.Dropped != 2 {
		t.Fatalf("emitted %d dropped %d, want 0 and 2", e.N, e.Dropped)
	}
	if s.Polyphony != 1 || s.LastVoice != 60 {
		t.Fatalf("press not counted: %+v", s)
	}

	e = Handle(&s, release(0, 60, 0), 0)
	if e.N != 0 || e.Dropped != 1 || s.Polyphony != 0 {
		t.Fatalf("release without room: %+v state %+v", e, s)
	}
}

func TestStartStopOnlyOnZeroCrossings(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var s State
	var poly int
	for i := 0; i < 5000; i++ {
		var ev contracts.NoteEvent
		if rng.Intn(2) == 0 {
			ev = press(0, uint8(rng.Intn(128)), 0)
		} else {
			ev = release(0, uint8(rng.Intn(128)), 0)
		}
		before := poly
		switch ev.Kind {
		case contracts.Press:
			poly++
		case contracts.Release:
			if poly > 0 {
				poly--
			}
		}

		e := Handle(&s, ev, 64)
		var starts, stops int
		for _, m := range e.Slice() {
			switch m.Kind {
			case contracts.Start:
				starts++
			case contracts.Stop:
				stops++
			}
		}
		wantStart := before == 0 && poly == 1
		wantStop := before == 1 && poly == 0
		if (starts == 1) != wantStart || starts > 1 {
			t.Fatalf("step %d: %d starts for %d->%d", i, starts, before, poly)
		}
		if (stops == 1) != wantStop || stops > 1 {
			t.Fatalf("step %d: %d stops for %d->%d", i, stops, before, poly)
		}
		if int(s.Polyphony) != poly {
			t.Fatalf("step %d: polyphony %d, want %d", i, s.Polyphony, poly)
		}
	}
}
