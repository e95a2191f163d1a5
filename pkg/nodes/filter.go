package nodes

import (
	"math"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// LadderFilter is the classic 4-pole Moog-style lowpass with resonance
// feedback, grounded on original_source/src/nodes/moog_ladder.rs's exact
// difference equation (Huovilainen's digital model of the 1965 analog
// design) and the teacher's pkg/audio/selectablefilter.go coefficient-
// recompute-per-sample shape. Inputs, in order: signal, cutoff (Hz),
// resonance (0-4; above ~3.5 the filter self-oscillates).
type LadderFilter[T node.ID] struct {
	node.Base[T]

	stage1, stage2, stage3, stage4 float32
}

// NewLadderFilter builds a LadderFilter reading signal/cutoff/resonance
// from the given nodes, in that order.
func NewLadderFilter[T node.ID](id, signal, cutoff, resonance T) *LadderFilter[T] {
	return &LadderFilter[T]{Base: node.Base[T]{ID: id, Inputs: []T{signal, cutoff, resonance}}}
}

// Process implements node.Node.
func (f *LadderFilter[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, cutoffBuf, resonanceBuf := inputs[0], inputs[1], inputs[2]

	for i := 0; i < output.Len(); i++ {
		cutoff := clampF(cutoffBuf.At(i), 20, float32(0.45*sampleRate))
		resonance := clampF(resonanceBuf.At(i), 0, 4)

		g := float32(1.0 - math.Exp(-2*math.Pi*float64(cutoff)/sampleRate))

		feedback := f.stage4 * resonance
		inputSaturated := float32(math.Tanh(float64(signal.At(i) - feedback)))

		f.stage1 += g * (inputSaturated - f.stage1)
		f.stage2 += g * (f.stage1 - f.stage2)
		f.stage3 += g * (f.stage2 - f.stage3)
		f.stage4 += g * (f.stage3 - f.stage4)

		output.Set(i, f.stage4)
	}
}

// OnePoleFilter is a single-stage lowpass/highpass, the plain building
// block the ladder cascades four of; exposed standalone for gentler tone
// shaping than the full ladder, per spec.md §4.1(b)'s "at least one
// classic filter topology" requirement. Inputs, in order: signal, cutoff
// (Hz). Highpass is computed as signal minus the lowpass output, the
// teacher's StateVariableFilter's complementary-output idiom.
type OnePoleFilter[T node.ID] struct {
	node.Base[T]
	Highpass bool

	state float32
}

// NewOnePoleFilter builds a OnePoleFilter reading signal/cutoff from the
// given nodes, in that order.
func NewOnePoleFilter[T node.ID](id, signal, cutoff T, highpass bool) *OnePoleFilter[T] {
	return &OnePoleFilter[T]{Base: node.Base[T]{ID: id, Inputs: []T{signal, cutoff}}, Highpass: highpass}
}

// Process implements node.Node.
func (f *OnePoleFilter[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, cutoffBuf := inputs[0], inputs[1]

	for i := 0; i < output.Len(); i++ {
		cutoff := clampF(cutoffBuf.At(i), 20, float32(0.45*sampleRate))
		g := float32(1.0 - math.Exp(-2*math.Pi*float64(cutoff)/sampleRate))

		f.state += g * (signal.At(i) - f.state)

		if f.Highpass {
			output.Set(i, signal.At(i)-f.state)
		} else {
			output.Set(i, f.state)
		}
	}
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
