// Package dataflow implements the concurrent execution model of spec.md
// §4.3: every node runs in its own goroutine ("task"), receiving a fresh
// ProcessContext and its input buffers over bounded channels each block,
// and fanning its output out to every downstream consumer through a
// shared-ownership buffer.Handle. Grounded on
// original_source/src/node_task.rs's NodeTask::run loop, translated from
// tokio tasks + crossbeam channels to goroutines + buffered Go channels.
package dataflow

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/metrics"
	gnode "github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// Config carries the runtime's construction-time tunables.
type Config struct {
	BlockSize   int
	SampleRate  float64
	ChannelSize int // per-edge channel capacity; defaults to 4 if <= 0, matching node_task.rs's bounded(4) test channels.
}

// edge is one directed data dependency: a channel carrying one producer's
// fanned-out output to one specific input slot of a consumer.
type edge struct {
	ch chan buffer.Handle
}

// task wraps one node as a continuously running goroutine, per
// node_task.rs's NodeTask. A node with no InputNodes() (a source, e.g.
// a Constant) additionally
// waits on triggerCh, which the Runtime ticks once per block — the
// per-block barrier source nodes would otherwise lack.
type task[T gnode.ID] struct {
	id   T
	node gnode.Node[T]

	contextCh chan *procctx.Context
	triggerCh chan buffer.Handle
	inputs    []*edge
	outputs   []*edge

	pool       *buffer.Pool
	sampleRate float64
	shutdown   *atomic.Bool
	metric     *metrics.Dataflow
	log        *logrus.Entry
}

func (t *task[T]) closeOutputs() {
	for _, out := range t.outputs {
		close(out.ch)
	}
}

// run is the per-node loop: receive context, receive inputs (and a
// trigger tick for source nodes), process, fan out, release. Returns on
// context-channel or input-channel close (graceful shutdown) or when the
// shutdown flag is observed at the top of an iteration.
func (t *task[T]) run() {
	defer t.closeOutputs()
	defer t.metric.TasksStopped.Inc()

	label := idLabel(t.id)

	for {
		if t.shutdown.Load() {
			return
		}

		ctx, ok := <-t.contextCh
		if !ok {
			return
		}

		if t.triggerCh != nil {
			tick, ok := <-t.triggerCh
			if !ok {
				return
			}
			tick.Release()
		}

		received := make([]buffer.Handle, len(t.inputs))
		views := make([]buffer.View, len(t.inputs))
		for i, in := range t.inputs {
			h, ok := <-in.ch
			if !ok {
				return
			}
			received[i] = h
			views[i] = h.Buffer().View()
			t.metric.ChannelDepth.WithLabelValues(label).Set(float64(len(in.ch)))
		}

		out := t.pool.Acquire()
		t.node.Prepare(ctx)
		t.node.Process(views, out.Mutable(), t.sampleRate, ctx)

		handle := buffer.NewHandle(out, t.pool)
		for _, o := range t.outputs {
			o.ch <- handle.Clone()
		}
		handle.Release()

		for _, h := range received {
			h.Release()
		}
	}
}

func idLabel[T gnode.ID](id T) string {
	if s, ok := any(id).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", id)
}
