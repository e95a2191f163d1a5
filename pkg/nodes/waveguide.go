package nodes

import (
	"math"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// waveguideRing is a fixed-capacity ring used by the two traveling-wave
// delay lines; the original uses a VecDeque that it trims to
// delay_samples+2 every sample, which this simplifies to a fixed
// max-size circular buffer with fractional read, equivalent for the
// one-write-one-read-per-sample access pattern the waveguide uses.
type waveguideRing struct {
	buf []float32
	pos int
}

func newWaveguideRing(size int) *waveguideRing {
	return &waveguideRing{buf: make([]float32, size)}
}

func (r *waveguideRing) readFractional(delaySamples float32) float32 {
	n := len(r.buf)
	readPos := float32(r.pos) - delaySamples
	if readPos < 0 {
		readPos += float32(n)
	}
	idx := int(readPos) % n
	next := (idx + 1) % n
	frac := readPos - float32(int(readPos))
	return r.buf[idx]*(1-frac) + r.buf[next]*frac
}

func (r *waveguideRing) write(sample float32) {
	r.buf[r.pos] = sample
	r.pos = (r.pos + 1) % len(r.buf)
}

// Waveguide is a two-delay-line digital waveguide physical model (a
// plucked-string/bar model), grounded exactly on
// original_source/src/nodes/waveguide.rs: half-wavelength bidirectional
// delay, one-pole brightness filtering in each traveling-wave path, and
// decay-scaled cross-feedback between the forward and backward lines.
// Inputs, in order: excitation, frequency (Hz), decay (0-0.9999),
// brightness (0-1).
type Waveguide[T node.ID] struct {
	node.Base[T]

	forward, backward   *waveguideRing
	filterFwd, filterBwd float32
	maxDelay            float32
	sampleRate          float64
}

// NewWaveguide builds a Waveguide sized for sampleRate; max_delay is
// derived the same way as the original: half the wavelength of the
// lowest supported pitch (27.5 Hz, A0).
func NewWaveguide[T node.ID](id, excitation, frequency, decay, brightness T, sampleRate float64) *Waveguide[T] {
	maxDelay := int(math.Ceil(sampleRate / 27.5 / 2.0))
	return &Waveguide[T]{
		Base:       node.Base[T]{ID: id, Inputs: []T{excitation, frequency, decay, brightness}},
		forward:    newWaveguideRing(maxDelay),
		backward:   newWaveguideRing(maxDelay),
		maxDelay:   float32(maxDelay),
		sampleRate: sampleRate,
	}
}

// ProvidesDelay implements node.Node.
func (w *Waveguide[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (w *Waveguide[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	excitation, freqBuf, decayBuf, brightnessBuf := inputs[0], inputs[1], inputs[2], inputs[3]

	for i := 0; i < output.Len(); i++ {
		freq := clampF(freqBuf.At(i), 27.5, 20000)
		decay := clampF(decayBuf.At(i), 0, 0.9999)
		brightness := clampF(brightnessBuf.At(i), 0, 1)

		wavelengthSamples := float32(sampleRate) / freq
		delaySamples := maxF(wavelengthSamples/2, 1)
		if delaySamples > w.maxDelay-1 {
			delaySamples = w.maxDelay - 1
		}

		fwdOut := w.forward.readFractional(delaySamples)
		bwdOut := w.backward.readFractional(delaySamples)

		alpha := brightness
		fwdFiltered := alpha*fwdOut + (1-alpha)*w.filterFwd
		w.filterFwd = fwdFiltered
		bwdFiltered := alpha*bwdOut + (1-alpha)*w.filterBwd
		w.filterBwd = bwdFiltered

		exc := excitation.At(i)
		fwdInput := exc*0.5 + bwdFiltered*decay
		bwdInput := exc*0.5 + fwdFiltered*decay

		w.forward.write(fwdInput)
		w.backward.write(bwdInput)

		output.Set(i, (fwdFiltered+bwdFiltered)*0.5)
	}
}
