package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// Oscillator is a single-input (frequency) multi-waveform source node.
// InputNodes()[0] is the frequency buffer in Hz, read per-sample so it can be
// modulated by an upstream node (an LFO, an envelope, a pattern-driven
// constant).
type Oscillator[T node.ID] struct {
	node.Base[T]
	Waveform Waveform

	state oscillatorState
}

// NewOscillator builds an Oscillator with the given ID reading frequency
// from freqNode.
func NewOscillator[T node.ID](id T, freqNode T, waveform Waveform) *Oscillator[T] {
	return &Oscillator[T]{
		Base:     node.Base[T]{ID: id, Inputs: []T{freqNode}},
		Waveform: waveform,
	}
}

// Process implements node.Node.
func (o *Oscillator[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	freq := inputs[0]
	for i := 0; i < output.Len(); i++ {
		output.Set(i, o.state.advance(o.Waveform, float64(freq.At(i)), sampleRate))
	}
}
