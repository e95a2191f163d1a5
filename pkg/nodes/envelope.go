package nodes

import (
	"math"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// arPhase is the AREnvelope's two-stage state, grounded on
// original_source/src/nodes/ar_envelope.rs's ARPhase: no decay/sustain
// stage, unlike pkg/voice.Envelope's attack/hold/release (which exists
// because sample playback needs a sustained "hold" until the sample
// ends); this one only ever ramps toward 1 or toward 0 on a gate edge.
type arPhase int

const (
	arIdle arPhase = iota
	arAttack
	arRelease
)

// AREnvelope is a gate-driven attack/release envelope generator: linear
// ramp to 1.0 on a gate rising edge, linear ramp to 0.0 on a falling
// edge, grounded on ar_envelope.rs. Inputs, in order: gate, attack (s),
// release (s).
type AREnvelope[T node.ID] struct {
	node.Base[T]

	phase      arPhase
	value      float32
	gateWasHigh bool
}

// NewAREnvelope builds an AREnvelope reading gate/attack/release from
// the given nodes, in that order.
func NewAREnvelope[T node.ID](id, gate, attack, release T) *AREnvelope[T] {
	return &AREnvelope[T]{Base: node.Base[T]{ID: id, Inputs: []T{gate, attack, release}}}
}

// Process implements node.Node.
func (e *AREnvelope[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	gateBuf, attackBuf, releaseBuf := inputs[0], inputs[1], inputs[2]

	for i := 0; i < output.Len(); i++ {
		gate := gateBuf.At(i)
		attackTime := maxF(attackBuf.At(i), 0.0001)
		releaseTime := maxF(releaseBuf.At(i), 0.0001)

		gateHigh := gate > 0.5
		gateRising := gateHigh && !e.gateWasHigh
		gateFalling := !gateHigh && e.gateWasHigh
		e.gateWasHigh = gateHigh

		if gateRising {
			e.phase = arAttack
		}
		if gateFalling {
			e.phase = arRelease
		}

		switch e.phase {
		case arIdle:
			e.value = 0
		case arAttack:
			e.value += float32(1.0 / (float64(attackTime) * sampleRate))
			if e.value >= 1 {
				e.value = 1
			}
		case arRelease:
			e.value -= float32(1.0 / (float64(releaseTime) * sampleRate))
			if e.value <= 0 {
				e.value = 0
				e.phase = arIdle
			}
		}

		output.Set(i, e.value)
	}
}

// Curve is a trigger-started ramp from start to end over duration
// seconds, shaped by an exponential curve amount, grounded on curve.rs.
// Inputs, in order: trigger, start, end, duration (s), curve (-10..10,
// 0 = linear).
type Curve[T node.ID] struct {
	node.Base[T]

	currentValue float32
	elapsed      float32
	active       bool
	lastTrigger  float32
}

// NewCurve builds a Curve reading trigger/start/end/duration/curve from
// the given nodes, in that order.
func NewCurve[T node.ID](id, trigger, start, end, duration, curve T) *Curve[T] {
	return &Curve[T]{Base: node.Base[T]{ID: id, Inputs: []T{trigger, start, end, duration, curve}}}
}

func interpolateCurve(progress, curve float32) float32 {
	if math.Abs(float64(curve)) < 0.001 {
		return progress
	}
	expCurve := float32(math.Exp(float64(curve)))
	expProgress := float32(math.Exp(float64(curve * progress)))
	return (expProgress - 1) / (expCurve - 1)
}

// Process implements node.Node.
func (c *Curve[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	triggerBuf, startBuf, endBuf, durationBuf, curveBuf := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]

	for i := 0; i < output.Len(); i++ {
		trigger := triggerBuf.At(i)
		start := startBuf.At(i)
		end := endBuf.At(i)
		duration := maxF(durationBuf.At(i), 0.001)
		curve := clampF(curveBuf.At(i), -10, 10)

		triggerRising := trigger > 0.5 && c.lastTrigger <= 0.5
		c.lastTrigger = trigger

		if triggerRising {
			c.currentValue = start
			c.elapsed = 0
			c.active = true
		}

		if c.active {
			progress := c.elapsed / duration
			if progress >= 1 {
				c.currentValue = end
				c.active = false
			} else {
				c.currentValue = start + (end-start)*interpolateCurve(progress, curve)
			}
			c.elapsed += float32(1.0 / sampleRate)
		}

		output.Set(i, c.currentValue)
	}
}

// SlewLimiter smooths a signal by bounding its rate of change separately
// for rising and falling transitions, grounded on slew_limiter.rs.
// Inputs, in order: signal, rise time (s), fall time (s).
type SlewLimiter[T node.ID] struct {
	node.Base[T]

	lastValue float32
}

// NewSlewLimiter builds a SlewLimiter reading signal/rise/fall from the
// given nodes, in that order.
func NewSlewLimiter[T node.ID](id, signal, riseTime, fallTime T) *SlewLimiter[T] {
	return &SlewLimiter[T]{Base: node.Base[T]{ID: id, Inputs: []T{signal, riseTime, fallTime}}}
}

// Process implements node.Node.
func (s *SlewLimiter[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, riseBuf, fallBuf := inputs[0], inputs[1], inputs[2]

	for i := 0; i < output.Len(); i++ {
		target := signal.At(i)
		riseTime := maxF(riseBuf.At(i), 0.0001)
		fallTime := maxF(fallBuf.At(i), 0.0001)

		maxRise := float32(1.0 / (float64(riseTime) * sampleRate))
		maxFall := float32(1.0 / (float64(fallTime) * sampleRate))

		delta := target - s.lastValue
		if delta > 0 {
			s.lastValue += minF(delta, maxRise)
		} else {
			s.lastValue += maxF(delta, -maxFall)
		}

		output.Set(i, s.lastValue)
	}
}

// ScaleQuantize snaps an input frequency to the nearest degree of a
// musical scale relative to a root frequency, preserving octave, grounded
// on scale_quantize.rs's equal-temperament quantize_frequency. Inputs, in
// order: frequency, root frequency.
type ScaleQuantize[T node.ID] struct {
	node.Base[T]
	Scale []float32
}

// Named scale tables, in semitones from the root, per scale_quantize.rs.
var (
	MajorScale           = []float32{0, 2, 4, 5, 7, 9, 11}
	MinorScale           = []float32{0, 2, 3, 5, 7, 8, 10}
	PentatonicMajorScale = []float32{0, 2, 4, 7, 9}
	PentatonicMinorScale = []float32{0, 3, 5, 7, 10}
	ChromaticScale       = []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	BluesScale           = []float32{0, 3, 5, 6, 7, 10}
	HarmonicMinorScale   = []float32{0, 2, 3, 5, 7, 8, 11}
	DorianScale          = []float32{0, 2, 3, 5, 7, 9, 10}
	PhrygianScale        = []float32{0, 1, 3, 5, 7, 8, 10}
	LydianScale          = []float32{0, 2, 4, 6, 7, 9, 11}
	MixolydianScale      = []float32{0, 2, 4, 5, 7, 9, 10}
	LocrianScale         = []float32{0, 1, 3, 5, 6, 8, 10}
)

// NewScaleQuantize builds a ScaleQuantize reading frequency/root from the
// given nodes, in that order, snapping to scale.
func NewScaleQuantize[T node.ID](id, freq, root T, scale []float32) *ScaleQuantize[T] {
	return &ScaleQuantize[T]{Base: node.Base[T]{ID: id, Inputs: []T{freq, root}}, Scale: scale}
}

func (q *ScaleQuantize[T]) quantize(freq, rootFreq float32) float32 {
	if freq <= 0 || rootFreq <= 0 || math.IsInf(float64(freq), 0) || math.IsInf(float64(rootFreq), 0) {
		return rootFreq
	}

	semitones := 12 * float32(math.Log2(float64(freq/rootFreq)))
	octave := float32(math.Floor(float64(semitones / 12)))
	semitoneInOctave := semitones - octave*12

	closestDegree := q.Scale[0]
	minDistance := float32(math.Abs(float64(semitoneInOctave - closestDegree)))

	for _, degree := range q.Scale {
		distance := float32(math.Abs(float64(semitoneInOctave - degree)))
		if distance < minDistance {
			closestDegree = degree
			minDistance = distance
		}
	}
	for _, degree := range q.Scale {
		wrapped := degree + 12
		distance := float32(math.Abs(float64(semitoneInOctave - wrapped)))
		if distance < minDistance {
			closestDegree = wrapped
			minDistance = distance
		}
	}

	quantizedSemitones := octave*12 + closestDegree
	return rootFreq * float32(math.Pow(2, float64(quantizedSemitones/12)))
}

// Process implements node.Node.
func (q *ScaleQuantize[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	freqBuf, rootBuf := inputs[0], inputs[1]
	for i := 0; i < output.Len(); i++ {
		output.Set(i, q.quantize(freqBuf.At(i), rootBuf.At(i)))
	}
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
