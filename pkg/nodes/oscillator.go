// Package nodes implements the concrete DSP archetypes (spec.md §4.1):
// oscillators, filters, delays/reverb, envelopes, utility math, physical
// models, granular synthesis, a vocoder, and the pattern-sample bridge.
// Every node embeds node.Base and implements Prepare/Process/ProvidesDelay
// per the pkg/node contract.
package nodes

import "math"

// Waveform selects an Oscillator's output shape.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformSaw
	WaveformSquare
	WaveformTriangle
	WaveformNoise
)

// polyBLEPSaw generates a band-limited sawtooth, correcting the naive
// 2*phase-1 ramp's discontinuity with a polynomial BLEP, per spec.md
// §4.1(a) and the teacher's pkg/audio/oscillator.go
// GeneratePolyBLEPSaw.
func polyBLEPSaw(phase, phaseIncrement float64) float64 {
	value := 2.0*phase - 1.0

	if phase < phaseIncrement {
		t := phase / phaseIncrement
		value -= 2*t - t*t - 1
	} else if phase > 1.0-phaseIncrement {
		t := (phase - 1.0) / phaseIncrement
		value -= t*t + 2*t + 1
	}

	return value
}

// polyBLEPSquare generates a band-limited square wave, correcting both
// edges of the 50%-duty discontinuity.
func polyBLEPSquare(phase, phaseIncrement float64) float64 {
	value := 1.0
	if phase >= 0.5 {
		value = -1.0
	}

	if phase < phaseIncrement {
		t := phase / phaseIncrement
		value += 2*t - t*t - 1
	} else if phase > 1.0-phaseIncrement {
		t := (phase - 1.0) / phaseIncrement
		value += t*t + 2*t + 1
	}

	if phase > 0.5-phaseIncrement && phase < 0.5+phaseIncrement {
		t := (phase - 0.5) / phaseIncrement
		if t < 0 {
			value -= t*t + 2*t + 1
		} else {
			value -= 2*t - t*t - 1
		}
	}

	return value
}

// triangleSample generates a naive (non-band-limited) triangle wave; its
// slope discontinuities are far gentler than saw/square's jump
// discontinuities so the original omits BLEP correction for it.
func triangleSample(phase float64) float64 {
	if phase < 0.5 {
		return 4.0*phase - 1.0
	}
	return -4.0*phase + 3.0
}

// noiseSample derives a deterministic pseudo-random value from phase, the
// way the teacher's GenerateWaveformSample does for WaveformNoise: a
// sine-based hash rather than a stateful PRNG, so the same phase always
// reproduces the same sample.
func noiseSample(phase float64) float64 {
	x := math.Sin(phase*12.9898+78.233) * 43758.5453
	return 2.0*(x-math.Floor(x)) - 1.0
}

// oscillatorState is the phase accumulator shared by Oscillator
// instantiations (kept separate from the generic Oscillator[T] type so
// the advance-and-generate logic is independent of the node ID type).
type oscillatorState struct {
	phase float64
}

// advance generates the next sample for waveform at the given frequency
// and sample rate, then moves the internal phase forward.
func (s *oscillatorState) advance(waveform Waveform, frequency, sampleRate float64) float32 {
	// frequency == 0 yields phaseIncrement == 0, holding phase constant
	// (spec.md B1); sampleRate is never 0 so the division is always safe.
	phaseIncrement := frequency / sampleRate

	var sample float64
	switch waveform {
	case WaveformSine:
		sample = math.Sin(2.0 * math.Pi * s.phase)
	case WaveformSaw:
		sample = polyBLEPSaw(s.phase, phaseIncrement)
	case WaveformSquare:
		sample = polyBLEPSquare(s.phase, phaseIncrement)
	case WaveformTriangle:
		sample = triangleSample(s.phase)
	case WaveformNoise:
		sample = noiseSample(s.phase)
	default:
		sample = 0
	}

	s.phase += phaseIncrement
	if s.phase >= 1.0 {
		s.phase -= math.Floor(s.phase)
	}

	return float32(sample)
}
