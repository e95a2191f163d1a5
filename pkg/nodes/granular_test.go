package nodes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
)

func sineSource(n int, freq, sampleRate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * float64(i) / sampleRate * freq))
	}
	return out
}

func TestGranularIsSilentWithoutSource(t *testing.T) {
	g := NewGranular[int](1, nil, 0, 0, 0, 0, 0, 44100, 1)
	position := constView(64, 0.5)
	grainSize := constView(64, 50)
	density := constView(64, 20)
	pitch := constView(64, 0)
	spray := constView(64, 0)
	out := outBuf(64)

	g.Process([]buffer.View{position, grainSize, density, pitch, spray}, out.Mutable(), 44100, testCtx(64, 44100))

	view := out.View()
	for i := 0; i < view.Len(); i++ {
		assert.Equal(t, float32(0), view.At(i))
	}
}

func TestGranularProducesSoundFromSource(t *testing.T) {
	source := sineSource(4410, 220, 44100)
	g := NewGranular[int](1, source, 0, 0, 0, 0, 0, 44100, 42)
	position := constView(4410, 0.5)
	grainSize := constView(4410, 50)
	density := constView(4410, 40)
	pitch := constView(4410, 0)
	spray := constView(4410, 0)
	out := outBuf(4410)

	g.Process([]buffer.View{position, grainSize, density, pitch, spray}, out.Mutable(), 44100, testCtx(4410, 44100))

	var energy float64
	view := out.View()
	for i := 0; i < view.Len(); i++ {
		energy += float64(view.At(i)) * float64(view.At(i))
	}
	assert.Greater(t, energy, 0.0, "grains should have spawned and produced nonzero output")
}

func TestGranularIsDeterministicForAFixedSeed(t *testing.T) {
	source := sineSource(4410, 220, 44100)
	position := constView(4410, 0.5)
	grainSize := constView(4410, 50)
	density := constView(4410, 40)
	pitch := constView(4410, 0)
	spray := constView(4410, 0.5)

	g1 := NewGranular[int](1, source, 0, 0, 0, 0, 0, 44100, 7)
	out1 := outBuf(4410)
	g1.Process([]buffer.View{position, grainSize, density, pitch, spray}, out1.Mutable(), 44100, testCtx(4410, 44100))

	g2 := NewGranular[int](1, source, 0, 0, 0, 0, 0, 44100, 7)
	out2 := outBuf(4410)
	g2.Process([]buffer.View{position, grainSize, density, pitch, spray}, out2.Mutable(), 44100, testCtx(4410, 44100))

	assert.Equal(t, out1.Raw(), out2.Raw())
}

func TestGranularProvidesDelay(t *testing.T) {
	g := NewGranular[int](1, nil, 0, 0, 0, 0, 0, 44100, 1)
	assert.True(t, g.ProvidesDelay())
}
