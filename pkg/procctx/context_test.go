package procctx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesserae-audio/graphcore/pkg/rational"
)

func TestCyclePositionAtOffset(t *testing.T) {
	ctx := New(rational.Zero(), 0, 512, 2.0, 44100.0)

	pos0 := ctx.CyclePositionAt(0)
	assert.InDelta(t, 0.0, pos0.Float64(), 1e-4)

	pos256 := ctx.CyclePositionAt(256)
	expected := 256.0 / (44100.0 / 2.0)
	assert.InDelta(t, expected, pos256.Float64(), 1e-4)
}

func TestControlDefault(t *testing.T) {
	ctx := New(rational.Zero(), 0, 512, 1.0, 44100.0)
	assert.Equal(t, 0.5, ctx.Control("swing", 0.5))
	ctx.Controls["swing"] = 0.25
	assert.Equal(t, 0.25, ctx.Control("swing", 0.5))
}
