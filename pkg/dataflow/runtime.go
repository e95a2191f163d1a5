package dataflow

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/graph"
	"github.com/tesserae-audio/graphcore/pkg/metrics"
	gnode "github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

const defaultChannelSize = 4

// Runtime is the concurrent, multi-threaded execution model of spec.md
// §4.3/§5(B): one goroutine per node, bounded channels for hand-off, a
// shared buffer.Pool, and an atomic shutdown flag. Unlike graph.Processor
// it does not compute a single global order — independent nodes run in
// parallel and ordering along any data-dependent path is enforced by
// FIFO channels instead.
type Runtime[T gnode.ID] struct {
	cfg  Config
	pool *buffer.Pool

	tasks    []*task[T]
	sinkEdge *edge
	sinkID   T

	ctxChans map[T]chan *procctx.Context
	triggers map[T]chan buffer.Handle

	shutdown *atomic.Bool
	wg       sync.WaitGroup
	started  bool

	metric *metrics.Dataflow
	log    *logrus.Entry
}

// New validates the node set (duplicate IDs, dangling inputs, same rules
// as graph.New) and wires one task plus one channel per data edge. It
// does not start any goroutines — call Start for that.
func New[T gnode.ID](cfg Config, nodes []gnode.Node[T], sink T, log *logrus.Entry) (*Runtime[T], error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "dataflow.Runtime")

	if cfg.ChannelSize <= 0 {
		cfg.ChannelSize = defaultChannelSize
	}

	// Reuse graph.New's validation (duplicate IDs, dangling inputs, and
	// the relaxed-topological-order cycle check) so both execution
	// models reject the same malformed graphs with the same error type;
	// the resulting Processor is discarded, only its construction-time
	// checks matter here.
	if _, err := graph.New(graph.Config{BlockSize: cfg.BlockSize, SampleRate: cfg.SampleRate}, nodes, sink, log); err != nil {
		return nil, err
	}

	byID := make(map[T]gnode.Node[T], len(nodes))
	for _, n := range nodes {
		byID[n.NodeID()] = n
	}

	pool := buffer.NewPool(cfg.BlockSize, log)
	pool.Prefill(len(nodes) * 2)

	shutdown := &atomic.Bool{}
	metric := metrics.NewDataflow()

	r := &Runtime[T]{
		cfg:      cfg,
		pool:     pool,
		ctxChans: make(map[T]chan *procctx.Context, len(nodes)),
		triggers: make(map[T]chan buffer.Handle),
		shutdown: shutdown,
		metric:   metric,
		log:      log,
		sinkID:   sink,
	}

	taskByID := make(map[T]*task[T], len(nodes))
	for _, n := range nodes {
		id := n.NodeID()
		ctxCh := make(chan *procctx.Context, 1)
		r.ctxChans[id] = ctxCh

		t := &task[T]{
			id:         id,
			node:       n,
			contextCh:  ctxCh,
			inputs:     make([]*edge, len(n.InputNodes())),
			pool:       pool,
			sampleRate: cfg.SampleRate,
			shutdown:   shutdown,
			metric:     metric,
			log:        log.WithField("node", idLabel(id)),
		}
		if len(n.InputNodes()) == 0 {
			trigger := make(chan buffer.Handle, 1)
			r.triggers[id] = trigger
			t.triggerCh = trigger
		}
		taskByID[id] = t
		r.tasks = append(r.tasks, t)
	}

	// Wire one channel per (producer, consumer-slot) edge. Priming a
	// producer's edge with an initial silent buffer when it provides
	// delay gives every consumer immediate, one-block-stale data,
	// exactly mirroring how the synchronous engine's relaxed
	// topological order lets a delay node's consumer read last block's
	// buffer (spec.md §4.2/§4.3).
	for _, n := range nodes {
		consumer := taskByID[n.NodeID()]
		for i, dep := range n.InputNodes() {
			producer := byID[dep]
			ch := make(chan buffer.Handle, cfg.ChannelSize)
			e := &edge{ch: ch}
			consumer.inputs[i] = e
			taskByID[dep].outputs = append(taskByID[dep].outputs, e)

			if producer.ProvidesDelay() {
				primed := buffer.NewHandle(pool.Acquire(), pool)
				ch <- primed
			}
		}
	}

	sinkCh := make(chan buffer.Handle, cfg.ChannelSize)
	r.sinkEdge = &edge{ch: sinkCh}
	taskByID[sink].outputs = append(taskByID[sink].outputs, r.sinkEdge)

	log.WithField("node_count", len(nodes)).Debug("dataflow runtime constructed")

	return r, nil
}

// Start launches one goroutine per node task. Safe to call once.
func (r *Runtime[T]) Start() {
	if r.started {
		return
	}
	r.started = true
	for _, t := range r.tasks {
		r.wg.Add(1)
		t := t
		go func() {
			defer r.wg.Done()
			t.run()
		}()
	}
}

// Stop sets the shutdown flag and closes every context and trigger
// channel, which every task observes within one block (spec.md §4.3's
// cancellation guarantee), then waits for all tasks to exit.
func (r *Runtime[T]) Stop() {
	r.shutdown.Store(true)
	for _, ch := range r.ctxChans {
		close(ch)
	}
	for _, ch := range r.triggers {
		close(ch)
	}
	r.wg.Wait()
}

// RenderBlock drives one block through every task: it broadcasts ctx to
// every node's context channel, ticks every source node's trigger, and
// blocks until the sink's output arrives, copying it into an
// owned buffer the caller may hold onto after this call returns.
//
// Returns a *gnode.ResourceExhaustionError naming the sink node if its
// output channel disconnects unexpectedly (a task exited or panicked
// mid-render); there is no retry within a block, per spec.md §4.3/§7.
func (r *Runtime[T]) RenderBlock(ctx *procctx.Context) (buffer.View, error) {
	for _, ch := range r.ctxChans {
		ch <- ctx
	}
	for _, ch := range r.triggers {
		tick := buffer.NewHandle(r.pool.Acquire(), r.pool)
		ch <- tick
	}

	handle, ok := <-r.sinkEdge.ch
	if !ok {
		return buffer.View{}, &gnode.ResourceExhaustionError{NodeID: r.sinkID, Err: gnode.ErrChannelDisconnected}
	}

	out := buffer.New(r.cfg.BlockSize)
	_ = out.Mutable().CopyFrom(handle.Buffer().View())
	handle.Release()

	_, _, _, highWater, _ := r.pool.Diagnostics()
	r.metric.PoolHighWater.Set(float64(highWater))

	return out.View(), nil
}
