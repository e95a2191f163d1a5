package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// ArithmeticOp selects Arithmetic's per-sample operation.
type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
	OpSub
	OpMul
)

// Arithmetic combines two signals sample-by-sample with Op, grounded on
// the teacher's pkg/audio/process.go mixing helpers generalized to a
// per-sample node (rather than a whole-buffer mix utility).
type Arithmetic[T node.ID] struct {
	node.Base[T]
	Op ArithmeticOp
}

// NewArithmetic builds an Arithmetic node reading a/b from the given
// nodes, in that order.
func NewArithmetic[T node.ID](id, a, b T, op ArithmeticOp) *Arithmetic[T] {
	return &Arithmetic[T]{Base: node.Base[T]{ID: id, Inputs: []T{a, b}}, Op: op}
}

// Process implements node.Node.
func (n *Arithmetic[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	a, b := inputs[0], inputs[1]
	for i := 0; i < output.Len(); i++ {
		switch n.Op {
		case OpAdd:
			output.Set(i, a.At(i)+b.At(i))
		case OpSub:
			output.Set(i, a.At(i)-b.At(i))
		case OpMul:
			output.Set(i, a.At(i)*b.At(i))
		}
	}
}

// divisionEpsilon guards against division by a near-zero denominator,
// per original_source/src/nodes/division.rs.
const divisionEpsilon = 1e-10

// Division computes a/b, outputting 0 when |b| falls below
// divisionEpsilon rather than propagating Inf/NaN, grounded on
// division.rs.
type Division[T node.ID] struct {
	node.Base[T]
}

// NewDivision builds a Division node reading a/b from the given nodes,
// in that order.
func NewDivision[T node.ID](id, a, b T) *Division[T] {
	return &Division[T]{Base: node.Base[T]{ID: id, Inputs: []T{a, b}}}
}

// Process implements node.Node.
func (n *Division[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	a, b := inputs[0], inputs[1]
	for i := 0; i < output.Len(); i++ {
		denom := b.At(i)
		if denom < 0 {
			denom = -denom
		}
		if denom < divisionEpsilon {
			output.Set(i, 0)
			continue
		}
		output.Set(i, a.At(i)/b.At(i))
	}
}

// NotEqualTo outputs 1.0 when |a-b| is at least Tolerance, else 0.0,
// grounded on not_equal_to.rs; commonly used to derive a gate or trigger
// from a changing control signal.
type NotEqualTo[T node.ID] struct {
	node.Base[T]
	Tolerance float32
}

// NewNotEqualTo builds a NotEqualTo node reading a/b from the given
// nodes, in that order.
func NewNotEqualTo[T node.ID](id, a, b T, tolerance float32) *NotEqualTo[T] {
	return &NotEqualTo[T]{Base: node.Base[T]{ID: id, Inputs: []T{a, b}}, Tolerance: tolerance}
}

// Process implements node.Node.
func (n *NotEqualTo[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	a, b := inputs[0], inputs[1]
	for i := 0; i < output.Len(); i++ {
		diff := a.At(i) - b.At(i)
		if diff < 0 {
			diff = -diff
		}
		if diff >= n.Tolerance {
			output.Set(i, 1)
		} else {
			output.Set(i, 0)
		}
	}
}

// Range linearly maps a signal from [InMin, InMax] to [OutMin, OutMax],
// clamping the result to the output range, grounded on range.rs.
type Range[T node.ID] struct {
	node.Base[T]
	InMin, InMax, OutMin, OutMax float32
}

// NewRange builds a Range node reading its signal from signalNode.
func NewRange[T node.ID](id, signalNode T, inMin, inMax, outMin, outMax float32) *Range[T] {
	return &Range[T]{
		Base:   node.Base[T]{ID: id, Inputs: []T{signalNode}},
		InMin:  inMin,
		InMax:  inMax,
		OutMin: outMin,
		OutMax: outMax,
	}
}

// Process implements node.Node.
func (n *Range[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal := inputs[0]
	inRange := n.InMax - n.InMin
	outRange := n.OutMax - n.OutMin

	for i := 0; i < output.Len(); i++ {
		normalized := (signal.At(i) - n.InMin) / inRange
		mapped := normalized*outRange + n.OutMin
		output.Set(i, clampF(mapped, n.OutMin, n.OutMax))
	}
}

// TapTempo converts a beat count to seconds at a given BPM:
// time = (60 / bpm) * beats, grounded on tap.rs. Inputs, in order:
// beats, bpm.
type TapTempo[T node.ID] struct {
	node.Base[T]
}

// NewTapTempo builds a TapTempo node reading beats/bpm from the given
// nodes, in that order.
func NewTapTempo[T node.ID](id, beats, bpm T) *TapTempo[T] {
	return &TapTempo[T]{Base: node.Base[T]{ID: id, Inputs: []T{beats, bpm}}}
}

// Process implements node.Node.
func (n *TapTempo[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	beatsBuf, bpmBuf := inputs[0], inputs[1]
	for i := 0; i < output.Len(); i++ {
		b := maxF(beatsBuf.At(i), 0)
		tempo := clampF(bpmBuf.At(i), 20, 300)
		output.Set(i, (60/tempo)*b)
	}
}
