package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// Constant is a zero-input source node that writes the same value to
// every sample of its output block. Every other archetype that takes a
// node.ID parameter (Oscillator's frequency, LadderFilter's cutoff, a
// pattern-sample node's gain) reads from a Constant when the host wants
// to wire in a fixed literal rather than a modulation signal.
type Constant[T node.ID] struct {
	node.Base[T]
	Value float32
}

// NewConstant builds a Constant node with no inputs.
func NewConstant[T node.ID](id T, value float32) *Constant[T] {
	return &Constant[T]{
		Base:  node.Base[T]{ID: id},
		Value: value,
	}
}

// Process implements node.Node.
func (c *Constant[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	output.Fill(c.Value)
}
