package nodes

import (
	"math"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// circularLine is the fractional-read circular delay buffer shared by
// every delay-bearing archetype below. The original_source delay.rs's
// delay line rounds to the nearest integer sample and has no feedback
// path; spec.md §4.1(c) asks for fractional interpolation and feedback,
// so this generalizes it with the linear-interpolated read already used
// by pkg/voice's sample playback and the feedback/saturation shape
// borrowed from tape_delay.rs.
type circularLine struct {
	buf      []float32
	writePos int
}

func newCircularLine(size int) *circularLine {
	if size < 2 {
		size = 2
	}
	return &circularLine{buf: make([]float32, size)}
}

func (l *circularLine) readFractional(delaySamples float32) float32 {
	n := len(l.buf)
	maxDelay := float32(n - 1)
	if delaySamples > maxDelay {
		delaySamples = maxDelay
	}
	if delaySamples < 0 {
		delaySamples = 0
	}

	readPos := float32(l.writePos) - delaySamples
	if readPos < 0 {
		readPos += float32(n)
	}

	idx := int(readPos) % n
	next := (idx + 1) % n
	frac := readPos - float32(int(readPos))

	return l.buf[idx]*(1-frac) + l.buf[next]*frac
}

func (l *circularLine) write(sample float32) {
	l.buf[l.writePos] = sample
	l.writePos = (l.writePos + 1) % len(l.buf)
}

// Delay is a feedback delay line with fractional-sample interpolated
// read. Inputs, in order: signal, delay time (seconds), feedback (0-0.95).
type Delay[T node.ID] struct {
	node.Base[T]

	line       *circularLine
	maxDelay   float32
	sampleRate float64
}

// NewDelay builds a Delay with a buffer sized for maxDelaySeconds at
// sampleRate.
func NewDelay[T node.ID](id, signal, delayTime, feedback T, maxDelaySeconds float32, sampleRate float64) *Delay[T] {
	size := int(math.Ceil(float64(maxDelaySeconds) * sampleRate))
	return &Delay[T]{
		Base:       node.Base[T]{ID: id, Inputs: []T{signal, delayTime, feedback}},
		line:       newCircularLine(size),
		maxDelay:   maxDelaySeconds,
		sampleRate: sampleRate,
	}
}

// ProvidesDelay implements node.Node: a feedback delay line may sit on
// the far side of a feedback edge, per spec.md §4.2.
func (d *Delay[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (d *Delay[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, timeBuf, feedbackBuf := inputs[0], inputs[1], inputs[2]

	for i := 0; i < output.Len(); i++ {
		delayTime := clampF(timeBuf.At(i), 0, d.maxDelay)
		feedback := clampF(feedbackBuf.At(i), 0, 0.95)
		delaySamples := delayTime * float32(sampleRate)

		delayed := d.line.readFractional(delaySamples)
		output.Set(i, delayed)

		d.line.write(signal.At(i) + delayed*feedback)
	}
}

// CombFilter is a single feedback comb with one-pole damping in the
// feedback path, the building block of Reverb's four parallel combs
// (reverb.rs's CombFilter), exposed standalone for tuned-resonance
// effects. Inputs, in order: signal, delay time (seconds), feedback
// (0-1), damping (0-1).
type CombFilter[T node.ID] struct {
	node.Base[T]

	line       *circularLine
	filterState float32
	maxDelay   float32
}

// NewCombFilter builds a CombFilter sized for maxDelaySeconds.
func NewCombFilter[T node.ID](id, signal, delayTime, feedback, damping T, maxDelaySeconds float32, sampleRate float64) *CombFilter[T] {
	size := int(math.Ceil(float64(maxDelaySeconds) * sampleRate))
	return &CombFilter[T]{
		Base:     node.Base[T]{ID: id, Inputs: []T{signal, delayTime, feedback, damping}},
		line:     newCircularLine(size),
		maxDelay: maxDelaySeconds,
	}
}

// ProvidesDelay implements node.Node.
func (c *CombFilter[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (c *CombFilter[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, timeBuf, feedbackBuf, dampingBuf := inputs[0], inputs[1], inputs[2], inputs[3]

	for i := 0; i < output.Len(); i++ {
		delayTime := clampF(timeBuf.At(i), 0, c.maxDelay)
		feedback := clampF(feedbackBuf.At(i), 0, 1)
		damping := clampF(dampingBuf.At(i), 0, 1)
		delaySamples := delayTime * float32(sampleRate)

		delayed := c.line.readFractional(delaySamples)
		c.filterState = delayed*(1-damping) + c.filterState*damping

		output.Set(i, delayed)
		c.line.write(signal.At(i) + c.filterState*feedback)
	}
}

// PingPongDelay alternates feedback between two internal delay lines,
// grounded on pingpong_delay.rs's left/right cross-feedback pattern,
// collapsed to a single accumulated output per spec.md §9's single-output
// node contract (see DESIGN.md's pan-gain Open Question resolution for
// the same collapse applied to pkg/voice). Inputs, in order: signal,
// delay time (seconds), feedback (0-0.95).
type PingPongDelay[T node.ID] struct {
	node.Base[T]

	left, right *circularLine
	maxDelay    float32
	onLeft      bool
}

// NewPingPongDelay builds a PingPongDelay sized for maxDelaySeconds.
func NewPingPongDelay[T node.ID](id, signal, delayTime, feedback T, maxDelaySeconds float32, sampleRate float64) *PingPongDelay[T] {
	size := int(math.Ceil(float64(maxDelaySeconds) * sampleRate))
	return &PingPongDelay[T]{
		Base:     node.Base[T]{ID: id, Inputs: []T{signal, delayTime, feedback}},
		left:     newCircularLine(size),
		right:    newCircularLine(size),
		maxDelay: maxDelaySeconds,
		onLeft:   true,
	}
}

// ProvidesDelay implements node.Node.
func (p *PingPongDelay[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (p *PingPongDelay[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, timeBuf, feedbackBuf := inputs[0], inputs[1], inputs[2]

	for i := 0; i < output.Len(); i++ {
		delayTime := clampF(timeBuf.At(i), 0, p.maxDelay)
		feedback := clampF(feedbackBuf.At(i), 0, 0.95)
		delaySamples := delayTime * float32(sampleRate)

		leftOut := p.left.readFractional(delaySamples)
		rightOut := p.right.readFractional(delaySamples)
		pingPonged := leftOut + rightOut

		sample := signal.At(i)
		if p.onLeft {
			p.left.write(sample + pingPonged*feedback)
			p.right.write(pingPonged * feedback)
		} else {
			p.left.write(pingPonged * feedback)
			p.right.write(sample + pingPonged*feedback)
		}
		p.onLeft = !p.onLeft

		output.Set(i, (leftOut+rightOut)*0.5)
	}
}

// TapeDelay is a feedback delay with wow/flutter pitch modulation and
// tanh tape saturation, grounded on tape_delay.rs. Inputs, in order:
// signal, delay time (s), feedback, wow rate (Hz), wow depth, flutter
// rate (Hz), flutter depth, saturation, mix.
type TapeDelay[T node.ID] struct {
	node.Base[T]

	line       *circularLine
	maxDelay   float32
	lpfState   float32
	wowPhase   float32
	flutPhase  float32
}

// NewTapeDelay builds a TapeDelay sized for maxDelaySeconds.
func NewTapeDelay[T node.ID](id T, inputs [9]T, maxDelaySeconds float32, sampleRate float64) *TapeDelay[T] {
	size := int(math.Ceil(float64(maxDelaySeconds) * sampleRate))
	return &TapeDelay[T]{
		Base:     node.Base[T]{ID: id, Inputs: inputs[:]},
		line:     newCircularLine(size),
		maxDelay: maxDelaySeconds,
	}
}

// ProvidesDelay implements node.Node.
func (t *TapeDelay[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (t *TapeDelay[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal := inputs[0]
	timeBuf, feedbackBuf := inputs[1], inputs[2]
	wowRateBuf, wowDepthBuf := inputs[3], inputs[4]
	flutRateBuf, flutDepthBuf := inputs[5], inputs[6]
	saturationBuf, mixBuf := inputs[7], inputs[8]

	for i := 0; i < output.Len(); i++ {
		delayTime := clampF(timeBuf.At(i), 0.001, t.maxDelay)
		feedback := clampF(feedbackBuf.At(i), 0, 0.95)
		wowRate := clampF(wowRateBuf.At(i), 0.1, 2.0)
		wowDepth := clampF(wowDepthBuf.At(i), 0, 1)
		flutRate := clampF(flutRateBuf.At(i), 5.0, 10.0)
		flutDepth := clampF(flutDepthBuf.At(i), 0, 1)
		saturation := clampF(saturationBuf.At(i), 0, 1)
		mix := clampF(mixBuf.At(i), 0, 1)

		wowInc := wowRate / float32(sampleRate)
		flutInc := flutRate / float32(sampleRate)

		wow := float32(math.Sin(2*math.Pi*float64(t.wowPhase))) * wowDepth * 0.001
		flutter := float32(math.Sin(2*math.Pi*float64(t.flutPhase))) * flutDepth * 0.0001

		modulatedTime := delayTime + wow + flutter
		delaySamples := clampF(modulatedTime*float32(sampleRate), 1, float32(len(t.line.buf)-1))

		delayed := t.line.readFractional(delaySamples)

		saturated := delayed
		if saturation > 0.01 {
			drive := 1 + saturation*3
			saturated = float32(math.Tanh(float64(delayed*drive))) / drive
		}

		cutoffCoef := float32(0.7) + saturation*0.2
		filtered := t.lpfState*cutoffCoef + saturated*(1-cutoffCoef)
		t.lpfState = filtered

		sample := signal.At(i)
		t.line.write(sample + filtered*feedback)

		t.wowPhase = float32(math.Mod(float64(t.wowPhase+wowInc), 1))
		t.flutPhase = float32(math.Mod(float64(t.flutPhase+flutInc), 1))

		output.Set(i, sample*(1-mix)+filtered*mix)
	}
}
