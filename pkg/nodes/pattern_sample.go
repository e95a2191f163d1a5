package nodes

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/pattern"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
	"github.com/tesserae-audio/graphcore/pkg/voice"
)

// paramSlot records where an optional control parameter lives in a
// PatternSampleNode's declared Inputs, mirroring
// original_source/src/nodes/sample_pattern.rs's Option<NodeId> fields:
// a parameter with no wired input keeps its cached default instead of
// occupying a slot in InputNodes().
type paramSlot struct {
	index int
	wired bool
}

// PatternSampleNode bridges a cycle-time Pattern[string] and a
// SampleBank into pkg/voice.Manager, per spec.md §4.5 and
// sample_pattern.rs's SamplePatternNode: it queries the pattern once per
// block (Prepare), triggers a voice per non-rest event at its
// sample-accurate offset, then renders the pool's mixed output for this
// node's own source-node bucket (Process).
type PatternSampleNode[T node.ID] struct {
	node.Base[T]

	Pattern pattern.Pattern[string]
	Bank    pattern.SampleBank
	Voices  *voice.Manager[T]
	log     *logrus.Entry

	gainParam, panParam, speedParam   paramSlot
	nParam, attackParam, releaseParam paramSlot

	cachedGain, cachedPan, cachedSpeed     float32
	cachedAttack, cachedRelease            float32
}

// NewPatternSampleNode builds a PatternSampleNode with the teacher's
// default parameter values (gain 1, pan 0, speed 1, attack 1ms, release
// 100ms); use the With* methods to wire a parameter to an upstream node.
func NewPatternSampleNode[T node.ID](id T, pat pattern.Pattern[string], bank pattern.SampleBank, voices *voice.Manager[T], log *logrus.Entry) *PatternSampleNode[T] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &PatternSampleNode[T]{
		Base:          node.Base[T]{ID: id},
		Pattern:       pat,
		Bank:          bank,
		Voices:        voices,
		log:           log.WithField("component", "nodes.PatternSampleNode"),
		cachedGain:    1.0,
		cachedPan:     0.0,
		cachedSpeed:   1.0,
		cachedAttack:  0.001,
		cachedRelease: 0.1,
	}
}

func (n *PatternSampleNode[T]) wire(slot *paramSlot, source T) {
	slot.index = len(n.Inputs)
	slot.wired = true
	n.Inputs = append(n.Inputs, source)
}

// WithGain wires this node's gain parameter to source's output.
func (n *PatternSampleNode[T]) WithGain(source T) *PatternSampleNode[T] {
	n.wire(&n.gainParam, source)
	return n
}

// WithPan wires this node's pan parameter to source's output.
func (n *PatternSampleNode[T]) WithPan(source T) *PatternSampleNode[T] {
	n.wire(&n.panParam, source)
	return n
}

// WithSpeed wires this node's playback speed parameter to source's
// output.
func (n *PatternSampleNode[T]) WithSpeed(source T) *PatternSampleNode[T] {
	n.wire(&n.speedParam, source)
	return n
}

// WithN wires a pitch offset in semitones to source's output; when set,
// it overrides WithSpeed's value via speed = 2^(n/12), per
// sample_pattern.rs's process_block.
func (n *PatternSampleNode[T]) WithN(source T) *PatternSampleNode[T] {
	n.wire(&n.nParam, source)
	return n
}

// WithAttack wires this node's envelope attack time (seconds) to
// source's output.
func (n *PatternSampleNode[T]) WithAttack(source T) *PatternSampleNode[T] {
	n.wire(&n.attackParam, source)
	return n
}

// WithRelease wires this node's envelope release time (seconds) to
// source's output.
func (n *PatternSampleNode[T]) WithRelease(source T) *PatternSampleNode[T] {
	n.wire(&n.releaseParam, source)
	return n
}

func readParam(inputs []buffer.View, slot paramSlot, def float32) float32 {
	if !slot.wired || slot.index >= len(inputs) {
		return def
	}
	view := inputs[slot.index]
	if view.Len() == 0 {
		return def
	}
	return view.At(0)
}

// Prepare implements node.Node: it queries Pattern for this block's
// cycle span and triggers a voice per resolved, non-rest event, per
// spec.md §4.5 steps 1-4.
func (n *PatternSampleNode[T]) Prepare(ctx *procctx.Context) {
	startCycle := ctx.CyclePosition
	endCycle := ctx.CyclePositionAt(ctx.BlockSize)

	events := n.Pattern.Query(pattern.State{
		Span:     pattern.Span{Begin: startCycle, End: endCycle},
		Controls: ctx.Controls,
	})

	samplesPerCycle := ctx.SampleRate / ctx.Tempo

	for _, event := range events {
		if event.Begin.Cmp(startCycle) < 0 || event.Begin.Cmp(endCycle) >= 0 {
			continue
		}
		if event.Value == "~" || event.Value == "" {
			continue
		}

		sampleData, ok := n.Bank.Get(event.Value)
		if !ok {
			n.log.WithField("sample", event.Value).Warn("pattern event named an unresolved sample")
			continue
		}

		eventCycleOffset := event.Begin.Sub(startCycle)
		sampleOffset := int(eventCycleOffset.Float64() * samplesPerCycle)
		if sampleOffset < 0 {
			sampleOffset = 0
		}
		if sampleOffset > ctx.BlockSize-1 {
			sampleOffset = ctx.BlockSize - 1
		}

		n.Voices.SetDefaultSource(n.ID)
		idx := n.Voices.Trigger(sampleData, n.cachedGain, n.cachedPan, n.cachedSpeed, nil, n.cachedAttack, n.cachedRelease)
		n.Voices.SetTriggerOffset(idx, sampleOffset)
	}
}

// Process implements node.Node: it refreshes cached parameter values
// from this block's first control sample, then copies this node's
// rendered voice bucket (or silence) to output.
func (n *PatternSampleNode[T]) Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	n.cachedGain = readParam(inputs, n.gainParam, 1.0)
	n.cachedPan = readParam(inputs, n.panParam, 0.0)
	n.cachedSpeed = readParam(inputs, n.speedParam, 1.0)

	if n.nParam.wired {
		semitones := readParam(inputs, n.nParam, 0.0)
		n.cachedSpeed = float32(math.Pow(2, float64(semitones)/12))
	}

	n.cachedAttack = readParam(inputs, n.attackParam, 0.001)
	n.cachedRelease = readParam(inputs, n.releaseParam, 0.1)

	buffers := n.Voices.RenderBlock(output.Len())
	if buf, ok := buffers[n.ID]; ok {
		for i, s := range buf {
			output.Set(i, s)
		}
		return
	}
	output.Fill(0)
}
