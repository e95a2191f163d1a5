package nodes

import (
	"math"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// svfBandpass is a Chamberlin state-variable filter run in its bandpass
// mode, grounded on the teacher's pkg/audio/synth.go StateVariableFilter
// (same w/freq/damp coefficient derivation and tanh soft-clip guard).
// original_source/src/nodes/vocoder.rs builds its per-band filters with
// an external Rust biquad-coefficient crate that has no equivalent
// anywhere in the retrieved pack; this reuses the teacher's own
// hand-rolled SVF instead of introducing an invented dependency (see
// DESIGN.md).
type svfBandpass struct {
	centerFreq, q, sampleRate float64
	prevLowpass, prevBandpass float64
}

func newSVFBandpass(centerFreq, bandwidth, sampleRate float64) *svfBandpass {
	q := centerFreq / bandwidth
	if q < 0.5 {
		q = 0.5
	}
	if q > 50 {
		q = 50
	}
	return &svfBandpass{centerFreq: centerFreq, q: q, sampleRate: sampleRate}
}

// retune updates the filter's center frequency and bandwidth in place,
// preserving prevLowpass/prevBandpass so the retune doesn't introduce a
// discontinuity, grounded on vocoder.rs's update_filters (which updates a
// biquad's coefficients in place without resetting its DirectForm2
// history).
func (f *svfBandpass) retune(centerFreq, bandwidth float64) {
	f.centerFreq = centerFreq
	q := centerFreq / bandwidth
	if q < 0.5 {
		q = 0.5
	}
	if q > 50 {
		q = 50
	}
	f.q = q
}

func (f *svfBandpass) run(input float32) float32 {
	w := f.centerFreq / f.sampleRate
	freq := 2 * math.Sin(math.Pi*w)
	if freq > 1.5 {
		freq = 1.5
	}
	damp := 2.0 / f.q

	highpass := float64(input) - f.prevLowpass - damp*f.prevBandpass
	bandpass := freq*highpass + f.prevBandpass
	lowpass := freq*bandpass + f.prevLowpass

	if math.Abs(lowpass) > 10 {
		lowpass = 10 * math.Tanh(lowpass/10)
	}
	if math.Abs(bandpass) > 10 {
		bandpass = 10 * math.Tanh(bandpass/10)
	}

	f.prevLowpass = lowpass
	f.prevBandpass = bandpass

	return float32(bandpass)
}

type vocoderBand struct {
	carrier, modulator *svfBandpass
	envelope           float32
}

// vocoderBandFrequencies returns numBands log-spaced center frequencies
// between 100Hz and 8kHz, per vocoder.rs's calculate_band_frequencies.
func vocoderBandFrequencies(numBands int) []float64 {
	const minFreq, maxFreq = 100.0, 8000.0
	freqs := make([]float64, numBands)
	for i := 0; i < numBands; i++ {
		t := float64(i) / float64(numBands-1)
		freqs[i] = minFreq * math.Pow(maxFreq/minFreq, t)
	}
	return freqs
}

// vocoderBandwidthEpsilon is the minimum bandwidthMult change that
// triggers an in-place coefficient retune, per vocoder.rs's
// update_bands_if_needed.
const vocoderBandwidthEpsilon = 0.01

// Vocoder imposes a modulator signal's spectral envelope onto a carrier
// signal via a bank of log-spaced bandpass filters with per-band
// envelope followers, grounded on original_source/src/nodes/vocoder.rs.
// Inputs, in order: carrier, modulator, numBands, bandwidth. numBands
// and bandwidth are read once per block from each buffer's first
// sample, matching process_block's "check the control input, then run
// the whole block" shape: a numBands change rebuilds the bank from
// scratch (losing filter state); a bandwidth change beyond
// vocoderBandwidthEpsilon retunes the existing bank's coefficients in
// place instead.
type Vocoder[T node.ID] struct {
	node.Base[T]

	bands         []vocoderBand
	numBands      int
	bandwidthMult float32
	sampleRate    float64
}

// NewVocoder builds a Vocoder reading carrier, modulator, numBands, and
// bandwidth from the given nodes, in that order. The initial bank is
// built from numBandsHint (clamped to [8,32]); Process rebuilds or
// retunes it thereafter as the numBands/bandwidth inputs change.
func NewVocoder[T node.ID](id, carrier, modulator, numBandsInput, bandwidthInput T, numBandsHint int, sampleRate float64) *Vocoder[T] {
	v := &Vocoder[T]{
		Base:          node.Base[T]{ID: id, Inputs: []T{carrier, modulator, numBandsInput, bandwidthInput}},
		bandwidthMult: 1.0,
		sampleRate:    sampleRate,
	}
	v.rebuildBands(numBandsHint)
	return v
}

func (v *Vocoder[T]) rebuildBands(numBands int) {
	if numBands < 8 {
		numBands = 8
	}
	if numBands > 32 {
		numBands = 32
	}
	freqs := vocoderBandFrequencies(numBands)
	bands := make([]vocoderBand, numBands)
	for i, freq := range freqs {
		bandwidth := (freq / 4.0) * float64(v.bandwidthMult)
		bands[i] = vocoderBand{
			carrier:   newSVFBandpass(freq, bandwidth, v.sampleRate),
			modulator: newSVFBandpass(freq, bandwidth, v.sampleRate),
		}
	}
	v.bands = bands
	v.numBands = numBands
}

// updateBandsIfNeeded mirrors vocoder.rs's update_bands_if_needed: a
// numBands change rebuilds the bank (resetting filter state); otherwise
// a bandwidth change past the epsilon retunes each band's filters in
// place, preserving their state.
func (v *Vocoder[T]) updateBandsIfNeeded(numBands int, bandwidthMult float32) {
	if numBands < 8 {
		numBands = 8
	}
	if numBands > 32 {
		numBands = 32
	}
	if bandwidthMult < 0.5 {
		bandwidthMult = 0.5
	}
	if bandwidthMult > 2.0 {
		bandwidthMult = 2.0
	}

	if numBands != v.numBands {
		v.bandwidthMult = bandwidthMult
		v.rebuildBands(numBands)
		return
	}

	diff := bandwidthMult - v.bandwidthMult
	if diff < 0 {
		diff = -diff
	}
	if diff <= vocoderBandwidthEpsilon {
		return
	}

	freqs := vocoderBandFrequencies(v.numBands)
	for i, freq := range freqs {
		bandwidth := (freq / 4.0) * float64(bandwidthMult)
		v.bands[i].carrier.retune(freq, bandwidth)
		v.bands[i].modulator.retune(freq, bandwidth)
	}
	v.bandwidthMult = bandwidthMult
}

// Process implements node.Node.
func (v *Vocoder[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	carrier, modulator, numBandsBuf, bandwidthBuf := inputs[0], inputs[1], inputs[2], inputs[3]

	numBands := int(math.Round(float64(numBandsBuf.At(0))))
	v.updateBandsIfNeeded(numBands, bandwidthBuf.At(0))

	attackCoeff := float32(math.Exp(-1.0 / (0.005 * sampleRate)))
	releaseCoeff := float32(math.Exp(-1.0 / (0.05 * sampleRate)))

	for i := 0; i < output.Len(); i++ {
		var vocoded float32
		for b := range v.bands {
			band := &v.bands[b]
			carrierBand := band.carrier.run(carrier.At(i))
			modulatorBand := band.modulator.run(modulator.At(i))

			rectified := modulatorBand
			if rectified < 0 {
				rectified = -rectified
			}

			if rectified > band.envelope {
				band.envelope = attackCoeff*band.envelope + (1-attackCoeff)*rectified
			} else {
				band.envelope = releaseCoeff*band.envelope + (1-releaseCoeff)*rectified
			}

			vocoded += carrierBand * band.envelope
		}
		output.Set(i, vocoded)
	}
}
