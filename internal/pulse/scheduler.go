// Package pulse schedules MIDI timing-clock pulses inside audio buffers.
//
// Pulse positions are derived from the tempo and sample rate of the current
// buffer and a fractional phase carried from the previous one, so the average
// spacing stays exactly one pulse period however the host sizes its buffers.
package pulse

import (
	"math"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// PulsesPerQuarter is fixed by the MIDI clock protocol.
const PulsesPerQuarter = 24

// Phase is the scheduler state carried across buffers.
type Phase struct {
	// Carried is the number of samples already elapsed toward the next pulse.
	Carried float64
	// FirstPulseEmitted latches the sync pulse sent when playback starts.
	FirstPulseEmitted bool
}

// SamplesPerPulse returns the pulse period in samples.
func SamplesPerPulse(tempo, sampleRate float64) float64 {
	return sampleRate / (tempo * PulsesPerQuarter / 60.0)
}

// Render computes the pulses of one buffer of frames samples and appends
// their offsets, each in [0, frames), to dst. dst is never grown: pulses
// beyond cap(dst) are counted in dropped but still advance the phase.
//
// While the host transport is stopped nothing is emitted and Carried is left
// alone. The first playing buffer after a stop starts with a pulse at offset
// zero and restarts the pulse grid from there.
//
// Tempo and sample rate must be positive; validating them is up to the host
// boundary.
func Render(p *Phase, frames int, info contracts.TransportInfo, dst []int) (offsets []int, dropped int) {
	if !info.Playing {
		p.FirstPulseEmitted = false
		return dst, 0
	}
	if frames <= 0 {
		return dst, 0
	}

	spp := SamplesPerPulse(info.Tempo, info.SampleRate)
	emit := func(off int) {
		if len(dst) == cap(dst) {
			dropped++
			return
		}
		dst = append(dst, off)
	}

	if !p.FirstPulseEmitted {
		p.FirstPulseEmitted = true
		p.Carried = 0
		emit(0)
	}

	n := float64(frames)
	c := p.Carried
	pos := 0.0
	for c+(n-pos) > spp {
		// A tempo increase can leave more carried than one period: the pulse
		// is overdue and goes out at the current position.
		pos += math.Max(spp-c, 0)
		c = 0
		off := int(math.Floor(pos))
		if off >= frames {
			off = frames - 1
		}
		emit(off)
	}
	p.Carried = c + (n - pos)
	return dst, dropped
}
