package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
)

func TestArithmeticOperations(t *testing.T) {
	a := constView(4, 3)
	b := constView(4, 2)

	cases := []struct {
		op   ArithmeticOp
		want float32
	}{
		{OpAdd, 5},
		{OpSub, 1},
		{OpMul, 6},
	}

	for _, c := range cases {
		n := NewArithmetic[int](1, 0, 0, c.op)
		out := outBuf(4)
		n.Process([]buffer.View{a, b}, out.Mutable(), 44100, testCtx(4, 44100))
		assert.Equal(t, c.want, out.View().At(0))
	}
}

func TestDivisionGuardsNearZeroDenominator(t *testing.T) {
	n := NewDivision[int](1, 0, 0)
	a := constView(2, 10)
	b := constView(2, 0)
	out := outBuf(2)

	n.Process([]buffer.View{a, b}, out.Mutable(), 44100, testCtx(2, 44100))

	assert.Equal(t, float32(0), out.View().At(0))
}

func TestDivisionComputesQuotient(t *testing.T) {
	n := NewDivision[int](1, 0, 0)
	a := constView(1, 10)
	b := constView(1, 4)
	out := outBuf(1)

	n.Process([]buffer.View{a, b}, out.Mutable(), 44100, testCtx(1, 44100))

	assert.Equal(t, float32(2.5), out.View().At(0))
}

func TestNotEqualToRespectsTolerance(t *testing.T) {
	n := NewNotEqualTo[int](1, 0, 0, 0.1)
	a := constView(1, 1.0)
	bClose := constView(1, 1.05)
	bFar := constView(1, 1.5)

	outClose := outBuf(1)
	n.Process([]buffer.View{a, bClose}, outClose.Mutable(), 44100, testCtx(1, 44100))
	assert.Equal(t, float32(0), outClose.View().At(0))

	outFar := outBuf(1)
	n.Process([]buffer.View{a, bFar}, outFar.Mutable(), 44100, testCtx(1, 44100))
	assert.Equal(t, float32(1), outFar.View().At(0))
}

func TestRangeMapsAndClampsToOutputRange(t *testing.T) {
	n := NewRange[int](1, 0, 0, 10, -1, 1)
	signal := constView(3, 20) // above InMax
	out := outBuf(3)

	n.Process([]buffer.View{signal}, out.Mutable(), 44100, testCtx(3, 44100))

	assert.Equal(t, float32(1), out.View().At(0), "values above InMax should clamp to OutMax")
}

func TestRangeMapsMidpoint(t *testing.T) {
	n := NewRange[int](1, 0, 0, 10, 0, 100)
	signal := constView(1, 5)
	out := outBuf(1)

	n.Process([]buffer.View{signal}, out.Mutable(), 44100, testCtx(1, 44100))

	assert.InDelta(t, 50, out.View().At(0), 1e-4)
}

func TestTapTempoConvertsBeatsToSeconds(t *testing.T) {
	n := NewTapTempo[int](1, 0, 0)
	beats := constView(1, 4)
	bpm := constView(1, 120)
	out := outBuf(1)

	n.Process([]buffer.View{beats, bpm}, out.Mutable(), 44100, testCtx(1, 44100))

	assert.InDelta(t, 2.0, out.View().At(0), 1e-4, "4 beats at 120 BPM should take 2 seconds")
}

func TestTapTempoClampsBPM(t *testing.T) {
	n := NewTapTempo[int](1, 0, 0)
	beats := constView(1, 1)
	bpm := constView(1, 1000) // clamps to 300
	out := outBuf(1)

	n.Process([]buffer.View{beats, bpm}, out.Mutable(), 44100, testCtx(1, 44100))

	assert.InDelta(t, 60.0/300.0, out.View().At(0), 1e-4)
}
