package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// StereoSplitter is an identity passthrough (spec.md §9, Open Question):
// original_source/src/nodes/stereo_splitter.rs actually deinterleaves a
// stereo signal into separate left/right buffers, which this node
// contract has no way to express since Process writes exactly one
// output buffer. A future revision promoting nodes from single-output to
// a small output vector would replace this with the real
// deinterleaving; today it exists only so a graph authored against that
// future contract still type-checks against this one.
type StereoSplitter[T node.ID] struct {
	node.Base[T]
}

// NewStereoSplitter builds a StereoSplitter reading from signalNode.
func NewStereoSplitter[T node.ID](id, signalNode T) *StereoSplitter[T] {
	return &StereoSplitter[T]{Base: node.Base[T]{ID: id, Inputs: []T{signalNode}}}
}

// Process implements node.Node.
func (s *StereoSplitter[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	_ = output.CopyFrom(inputs[0])
}
