package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// reverbCombDelays and reverbAllpassDelays are the base delay lengths (in
// samples at 44.1kHz) from original_source/src/nodes/reverb.rs; they are
// scaled implicitly by the feedback_scale term rather than by resizing
// the lines, matching the original exactly.
var reverbCombDelays = [4]int{1557, 1617, 1491, 1422}
var reverbAllpassDelays = [2]int{225, 556}

type reverbComb struct {
	buf         []float32
	pos         int
	feedback    float32
	filterState float32
}

func newReverbComb(delay int) *reverbComb {
	return &reverbComb{buf: make([]float32, delay), feedback: 0.84}
}

func (c *reverbComb) process(input, damping float32) float32 {
	delayed := c.buf[c.pos]
	c.filterState = delayed*(1-damping) + c.filterState*damping
	out := input + c.filterState*c.feedback
	c.buf[c.pos] = out
	c.pos = (c.pos + 1) % len(c.buf)
	return delayed
}

type reverbAllpass struct {
	buf []float32
	pos int
}

func newReverbAllpass(delay int) *reverbAllpass {
	return &reverbAllpass{buf: make([]float32, delay)}
}

func (a *reverbAllpass) process(input float32) float32 {
	delayed := a.buf[a.pos]
	out := -input + delayed
	a.buf[a.pos] = input + delayed*0.5
	a.pos = (a.pos + 1) % len(a.buf)
	return out
}

// Reverb is a Schroeder reverb: four parallel damped combs feeding two
// series allpass filters, grounded exactly on reverb.rs (same delay
// lengths, same feedback_scale formula). Inputs, in order: signal, room
// size (0-1), damping (0-1), wet/dry mix (0-1).
type Reverb[T node.ID] struct {
	node.Base[T]

	combs    [4]*reverbComb
	allpass1 *reverbAllpass
	allpass2 *reverbAllpass
}

// NewReverb builds a Reverb reading signal/room/damping/wet from the
// given nodes, in that order.
func NewReverb[T node.ID](id, signal, room, damping, wet T) *Reverb[T] {
	r := &Reverb[T]{
		Base:     node.Base[T]{ID: id, Inputs: []T{signal, room, damping, wet}},
		allpass1: newReverbAllpass(reverbAllpassDelays[0]),
		allpass2: newReverbAllpass(reverbAllpassDelays[1]),
	}
	for i, d := range reverbCombDelays {
		r.combs[i] = newReverbComb(d)
	}
	return r
}

// ProvidesDelay implements node.Node: the internal comb/allpass lines let
// a reverb safely close a feedback loop, per spec.md §4.2.
func (r *Reverb[T]) ProvidesDelay() bool { return true }

// Process implements node.Node.
func (r *Reverb[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	signal, roomBuf, dampingBuf, wetBuf := inputs[0], inputs[1], inputs[2], inputs[3]

	for i := 0; i < output.Len(); i++ {
		in := signal.At(i)
		room := clampF(roomBuf.At(i), 0, 1)
		damp := clampF(dampingBuf.At(i), 0, 1)
		wet := clampF(wetBuf.At(i), 0, 1)

		feedbackScale := 0.28 + room*0.7
		for _, c := range r.combs {
			c.feedback = feedbackScale
		}

		var combOut float32
		for _, c := range r.combs {
			combOut += c.process(in, damp)
		}
		combOut *= 0.25

		reverbOut := r.allpass2.process(r.allpass1.process(combOut))

		output.Set(i, in*(1-wet)+reverbOut*wet)
	}
}
