package nodes

import (
	"math"
	"math/rand"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// hannWindow returns the Hann-window amplitude for a grain at age samples
// into a duration-sample grain, per granular.rs.
func hannWindow(age, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	phase := age / duration
	return float32(0.5 * (1 - math.Cos(2*math.Pi*float64(phase))))
}

type grain struct {
	position   float32
	duration   float32
	age        float32
	pitchRatio float32
}

func (g *grain) process(source []float32) float32 {
	if g.age >= g.duration {
		return 0
	}

	window := hannWindow(g.age, g.duration)

	sourceLen := float32(len(source))
	pos := float32(math.Mod(float64(g.position), float64(sourceLen)))
	if pos < 0 {
		pos += sourceLen
	}
	index := int(pos)
	frac := pos - float32(index)

	var sample float32
	if index+1 < len(source) {
		sample = source[index] + frac*(source[index+1]-source[index])
	} else {
		sample = source[index]
	}

	g.position += g.pitchRatio
	g.age++

	return sample * window
}

func (g *grain) finished() bool { return g.age >= g.duration }

// Granular is a grain-scheduling granular synthesizer over a fixed
// source buffer, grounded on original_source/src/nodes/granular.rs:
// grains spawn at a density-controlled rate, each a Hann-windowed,
// pitch-shiftable read of Source with linear interpolation. Inputs, in
// order: position (0-1), grain size (ms), density (grains/sec), pitch
// (semitones), spray (0-1).
type Granular[T node.ID] struct {
	node.Base[T]
	Source []float32

	rng                   *rand.Rand
	activeGrains          []grain
	samplesSinceLastGrain float32
	sampleRate            float64
}

// NewGranular builds a Granular node over source, reading its five
// control parameters from the given nodes, in order.
func NewGranular[T node.ID](id T, source []float32, position, grainSize, density, pitch, spray T, sampleRate float64, seed int64) *Granular[T] {
	return &Granular[T]{
		Base:       node.Base[T]{ID: id, Inputs: []T{position, grainSize, density, pitch, spray}},
		Source:     source,
		rng:        rand.New(rand.NewSource(seed)),
		sampleRate: sampleRate,
	}
}

// ProvidesDelay implements node.Node: active grains sample the source
// buffer at positions that may lag or lead the current block, so a
// granular node tolerates appearing on a feedback edge the same way a
// delay line does.
func (g *Granular[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (g *Granular[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	if len(g.Source) == 0 {
		output.Fill(0)
		return
	}

	positionBuf, grainSizeBuf, densityBuf, pitchBuf, sprayBuf := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
	sourceLen := float32(len(g.Source))

	for i := 0; i < output.Len(); i++ {
		position := clampF(positionBuf.At(i), 0, 1)
		grainSizeMs := clampF(grainSizeBuf.At(i), 5, 500)
		density := clampF(densityBuf.At(i), 1, 100)
		pitchSemitones := clampF(pitchBuf.At(i), -12, 12)
		spray := clampF(sprayBuf.At(i), 0, 1)

		grainDuration := (grainSizeMs / 1000) * float32(sampleRate)
		pitchRatio := float32(math.Pow(2, float64(pitchSemitones)/12))
		grainsPerSample := density / float32(sampleRate)

		g.samplesSinceLastGrain += grainsPerSample
		for g.samplesSinceLastGrain >= 1 {
			sprayOffset := (g.rng.Float32() - 0.5) * spray
			spawnPosition := clampF(position+sprayOffset, 0, 1)
			startSample := spawnPosition * sourceLen

			g.activeGrains = append(g.activeGrains, grain{
				position:   startSample,
				duration:   grainDuration,
				pitchRatio: pitchRatio,
			})
			g.samplesSinceLastGrain--
		}

		var sum float32
		for gi := range g.activeGrains {
			sum += g.activeGrains[gi].process(g.Source)
		}

		kept := g.activeGrains[:0]
		for _, gr := range g.activeGrains {
			if !gr.finished() {
				kept = append(kept, gr)
			}
		}
		g.activeGrains = kept

		output.Set(i, sum)
	}
}
