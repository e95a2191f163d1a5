package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tesserae-audio/graphcore/pkg/rational"
)

// sequencePattern cycles through a fixed list of named events, one per
// cycle, returning an event only when its cycle position falls in the
// queried span. It is a minimal test double, not a mini-notation parser.
type sequencePattern struct {
	names []string
}

func (p *sequencePattern) Query(state State) []Event[string] {
	var out []Event[string]
	for i, name := range p.names {
		begin := rational.New(int64(i), 1)
		if begin.Cmp(state.Span.Begin) >= 0 && begin.Less(state.Span.End) {
			out = append(out, Event[string]{
				Value: name,
				Begin: begin,
				End:   rational.New(int64(i+1), 1),
			})
		}
	}
	return out
}

type mapSampleBank struct {
	samples map[string][]float32
}

func (b *mapSampleBank) Get(name string) ([]float32, bool) {
	data, ok := b.samples[name]
	return data, ok
}

func TestSequencePatternSatisfiesPatternInterface(t *testing.T) {
	var p Pattern[string] = &sequencePattern{names: []string{"bd", "sn"}}

	events := p.Query(State{Span: Span{Begin: rational.New(0, 1), End: rational.New(1, 1)}})
	assert.Len(t, events, 1)
	assert.Equal(t, "bd", events[0].Value)

	events = p.Query(State{Span: Span{Begin: rational.New(1, 1), End: rational.New(2, 1)}})
	assert.Len(t, events, 1)
	assert.Equal(t, "sn", events[0].Value)
}

func TestMapSampleBankSatisfiesSampleBankInterface(t *testing.T) {
	var bank SampleBank = &mapSampleBank{samples: map[string][]float32{"bd": {1, 0, -1}}}

	data, ok := bank.Get("bd")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 0, -1}, data)

	_, ok = bank.Get("~")
	assert.False(t, ok)
}
