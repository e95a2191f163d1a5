package main

import (
	"github.com/tesserae-audio/graphcore/pkg/pattern"
	"github.com/tesserae-audio/graphcore/pkg/rational"
)

// stepPattern is a fixed-grid step sequencer: Steps divides each cycle
// into len(Steps) equal slots, each holding a sample name or the rest
// sentinel "~". It does not parse mini-notation (out of scope, spec.md
// §1) — only enough of pattern.Pattern[string] to drive the demo
// harness's PatternSampleNode, grounded on
// original_source/src/pattern_sequencer.rs's fixed-step grid shape
// (Euclidean/probabilistic scheduling, also out of scope, is what that
// file adds on top of this).
type stepPattern struct {
	Steps []string
}

// Query implements pattern.Pattern[string]: it returns one Event per
// step boundary that falls within the queried span, wrapping around on
// every integer cycle boundary so the same grid repeats every cycle.
func (p *stepPattern) Query(state pattern.State) []pattern.Event[string] {
	if len(p.Steps) == 0 {
		return nil
	}

	var events []pattern.Event[string]
	n := int64(len(p.Steps))

	startCycle := state.Span.Begin.Float64()
	endCycle := state.Span.End.Float64()

	firstStep := int64(startCycle * float64(n))
	lastStep := int64(endCycle*float64(n)) + 1

	for step := firstStep; step <= lastStep; step++ {
		idx := step % n
		if idx < 0 {
			idx += n
		}
		begin := rational.New(step, n)
		end := rational.New(step+1, n)
		if begin.Float64() < startCycle || begin.Float64() >= endCycle {
			continue
		}
		events = append(events, pattern.Event[string]{
			Value: p.Steps[idx],
			Begin: begin,
			End:   end,
		})
	}

	return events
}
