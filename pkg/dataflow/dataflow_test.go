package dataflow

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	gnode "github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
	"github.com/tesserae-audio/graphcore/pkg/rational"
)

// constNode writes value plus the sum of its inputs to every output
// sample, the same test double shape pkg/graph uses, adapted for
// concurrent access (no shared seen-order slice, since task scheduling
// order across goroutines is intentionally unspecified).
type constNode struct {
	gnode.Base[gnode.IntID]
	value float32
	delay bool
}

func (n *constNode) ProvidesDelay() bool { return n.delay }

func (n *constNode) Process(inputs []buffer.View, out buffer.Mutable, sampleRate float64, ctx *procctx.Context) {
	var sum float32
	for _, in := range inputs {
		for i := 0; i < in.Len(); i++ {
			sum += in.At(i)
		}
	}
	for i := 0; i < out.Len(); i++ {
		out.Set(i, n.value+sum)
	}
}

func dfCtx() *procctx.Context {
	return procctx.New(rational.New(0, 1), 0, 8, 120, 44100)
}

func renderWithTimeout(t *testing.T, r *Runtime[gnode.IntID], ctx *procctx.Context) buffer.View {
	t.Helper()
	type result struct {
		view buffer.View
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := r.RenderBlock(ctx)
		done <- result{view, err}
	}()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		return res.view
	case <-time.After(2 * time.Second):
		t.Fatal("RenderBlock did not complete in time")
		return buffer.View{}
	}
}

func TestRuntimePipelineProducesSummedOutput(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}, value: 1}
	b := &constNode{Base: gnode.Base[gnode.IntID]{ID: 2, Inputs: []gnode.IntID{1}}, value: 2}
	c := &constNode{Base: gnode.Base[gnode.IntID]{ID: 3, Inputs: []gnode.IntID{2}}, value: 3}

	r, err := New(Config{BlockSize: 8, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a, b, c}, gnode.IntID(3), nil)
	require.NoError(t, err)

	r.Start()
	defer r.Stop()

	out := renderWithTimeout(t, r, dfCtx())
	// a outputs 1 everywhere; b sums 8*1=8 then adds 2 -> 10; c sums 8*10=80 then adds 3 -> 83.
	assert.InDelta(t, 83, out.At(0), 1e-9)
}

func TestRuntimeHandlesMultipleBlocksInARow(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}, value: 5}

	r, err := New(Config{BlockSize: 4, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a}, gnode.IntID(1), nil)
	require.NoError(t, err)

	r.Start()
	defer r.Stop()

	for i := 0; i < 5; i++ {
		out := renderWithTimeout(t, r, dfCtx())
		assert.InDelta(t, 5, out.At(0), 1e-9)
	}
}

func TestRuntimeFeedbackEdgeThroughDelayProvidingNodeDoesNotDeadlock(t *testing.T) {
	// b depends on a (normal edge) and on c's output (a feedback edge
	// into b); c provides delay and depends on b, closing the cycle
	// a -> b -> c -> b. c.ProvidesDelay()==true lets the c->b edge be
	// primed with silence instead of forcing b to wait on c's first
	// real output.
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}, value: 1}
	b := &constNode{Base: gnode.Base[gnode.IntID]{ID: 2, Inputs: []gnode.IntID{1, 3}}, value: 0}
	c := &constNode{Base: gnode.Base[gnode.IntID]{ID: 3, Inputs: []gnode.IntID{2}}, value: 0, delay: true}

	r, err := New(Config{BlockSize: 4, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a, b, c}, gnode.IntID(3), nil)
	require.NoError(t, err)

	r.Start()
	defer r.Stop()

	out := renderWithTimeout(t, r, dfCtx())
	assert.False(t, anyNaN(out))
}

func anyNaN(v buffer.View) bool {
	for i := 0; i < v.Len(); i++ {
		if v.At(i) != v.At(i) {
			return true
		}
	}
	return false
}

func TestRuntimeRejectsDanglingInput(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1, Inputs: []gnode.IntID{99}}}
	_, err := New(Config{BlockSize: 8, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a}, gnode.IntID(1), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gnode.ErrDanglingInput)
}

func TestRuntimeRejectsDuplicateID(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}}
	b := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}}
	_, err := New(Config{BlockSize: 8, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a, b}, gnode.IntID(1), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gnode.ErrDuplicateID)
}

func TestRuntimeRejectsUnresolvableCycle(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1, Inputs: []gnode.IntID{2}}}
	b := &constNode{Base: gnode.Base[gnode.IntID]{ID: 2, Inputs: []gnode.IntID{1}}}
	_, err := New(Config{BlockSize: 8, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a, b}, gnode.IntID(1), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gnode.ErrUnresolvableCycle)
}

func TestRuntimeStopTerminatesAllTasks(t *testing.T) {
	a := &constNode{Base: gnode.Base[gnode.IntID]{ID: 1}, value: 1}
	b := &constNode{Base: gnode.Base[gnode.IntID]{ID: 2, Inputs: []gnode.IntID{1}}, value: 1}

	r, err := New(Config{BlockSize: 4, SampleRate: 44100}, []gnode.Node[gnode.IntID]{a, b}, gnode.IntID(2), nil)
	require.NoError(t, err)

	r.Start()
	_ = renderWithTimeout(t, r, dfCtx())

	stopped := make(chan struct{})
	var once sync.Once
	go func() {
		r.Stop()
		once.Do(func() { close(stopped) })
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}
