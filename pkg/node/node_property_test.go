package node

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
	"github.com/tesserae-audio/graphcore/pkg/rational"
)

// sumNode is a minimal arithmetic node double: it writes the sum of every
// input sample plus a fixed offset, used to probe the Node contract's
// numeric guarantees without depending on any concrete archetype.
type sumNode struct {
	Base[IntID]
	offset float32
}

func (n *sumNode) Process(inputs []buffer.View, out buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	for i := 0; i < out.Len(); i++ {
		var sum float32
		for _, in := range inputs {
			sum += in.At(i)
		}
		out.Set(i, sum+n.offset)
	}
}

// TestProcessOutputsFiniteForBoundedParameters is a rapid-based check of
// spec.md (P3): for parameters drawn from [-10, 10], a node's output stays
// finite (no NaN, no +/-Inf).
func TestProcessOutputsFiniteForBoundedParameters(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blockSize := rapid.IntRange(1, 64).Draw(t, "blockSize")
		offset := float32(rapid.Float64Range(-10, 10).Draw(t, "offset"))
		values := rapid.SliceOfN(rapid.Float64Range(-10, 10), 0, 4).Draw(t, "values")

		in := buffer.New(blockSize)
		for i := 0; i < blockSize; i++ {
			var v float32
			if len(values) > 0 {
				v = float32(values[i%len(values)])
			}
			in.Mutable().Set(i, v)
		}

		n := &sumNode{offset: offset}
		out := buffer.New(blockSize)
		n.Process([]buffer.View{in.View()}, out.Mutable(), 44100, dummyCtx(blockSize))

		for i := 0; i < out.Len(); i++ {
			s := out.View().At(i)
			assert.False(t, math.IsNaN(float64(s)), "NaN at sample %d", i)
			assert.False(t, math.IsInf(float64(s), 0), "Inf at sample %d", i)
		}
	})
}

// divNode mirrors pkg/nodes.Division's epsilon-gated zeroing, as a local
// double so this package's property tests don't need to import pkg/nodes.
type divNode struct {
	Base[IntID]
}

const divEpsilon = 1e-10

func (n *divNode) Process(inputs []buffer.View, out buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	a, b := inputs[0], inputs[1]
	for i := 0; i < out.Len(); i++ {
		denom := b.At(i)
		if denom < 0 {
			denom = -denom
		}
		if denom < divEpsilon {
			out.Set(i, 0)
			continue
		}
		out.Set(i, a.At(i)/b.At(i))
	}
}

// TestDivisionLikeNodeZeroesNearZeroDenominator is a rapid-based check of
// spec.md (B2): division-like nodes output exactly 0 when the denominator's
// magnitude falls below 1e-10.
func TestDivisionLikeNodeZeroesNearZeroDenominator(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blockSize := rapid.IntRange(1, 32).Draw(t, "blockSize")
		numerator := float32(rapid.Float64Range(-10, 10).Draw(t, "numerator"))
		denom := float32(rapid.Float64Range(-1, 1).Draw(t, "denom"))
		nearZero := rapid.Bool().Draw(t, "nearZero")
		if nearZero {
			denom = float32(rapid.Float64Range(-1, 1).Draw(t, "tinyDenom")) * 1e-11
		}

		a := buffer.New(blockSize)
		b := buffer.New(blockSize)
		for i := 0; i < blockSize; i++ {
			a.Mutable().Set(i, numerator)
			b.Mutable().Set(i, denom)
		}

		n := &divNode{}
		out := buffer.New(blockSize)
		n.Process([]buffer.View{a.View(), b.View()}, out.Mutable(), 44100, dummyCtx(blockSize))

		absDenom := denom
		if absDenom < 0 {
			absDenom = -absDenom
		}
		for i := 0; i < out.Len(); i++ {
			if absDenom < divEpsilon {
				assert.Equal(t, float32(0), out.View().At(i))
			} else {
				assert.False(t, math.IsNaN(float64(out.View().At(i))))
			}
		}
	})
}

func dummyCtx(blockSize int) *procctx.Context {
	return procctx.New(rational.New(0, 1), 0, blockSize, 120, 44100)
}
