// Package graph implements the synchronous block processor (spec.md
// §4.2): it owns the node set, computes a valid execution order once at
// construction, allocates one buffer per node, and drives one render per
// block by calling each node's Prepare then Process in order.
package graph

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/metrics"
	gnode "github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// Config carries the processor's construction-time tunables. This is the
// core library's own configuration surface — a plain struct, not a
// loader — per SPEC_FULL.md §3.C; the demo harness is the only place that
// binds it to flags/env/file.
type Config struct {
	BlockSize  int
	SampleRate float64
}

// Processor is the synchronous, single-threaded block processor.
type Processor[T gnode.ID] struct {
	cfg    Config
	nodes  map[T]gnode.Node[T]
	order  []T
	bufs   map[T]*buffer.Buffer
	sink   T
	log    *logrus.Entry
	metric *metrics.Graph
}

// New builds a Processor over the given nodes, computing a topological
// order that relaxes edges out of ProvidesDelay()==true nodes (spec.md
// §4.2). sink identifies the node whose buffer is the graph's output.
// Returns a *gnode.GraphConstructionError wrapping gnode.ErrDanglingInput,
// gnode.ErrDuplicateID, or gnode.ErrUnresolvableCycle on invalid input.
func New[T gnode.ID](cfg Config, nodes []gnode.Node[T], sink T, log *logrus.Entry) (*Processor[T], error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "graph.Processor")

	byID := make(map[T]gnode.Node[T], len(nodes))
	for _, n := range nodes {
		if _, exists := byID[n.NodeID()]; exists {
			return nil, &gnode.GraphConstructionError{NodeID: n.NodeID(), Err: gnode.ErrDuplicateID}
		}
		byID[n.NodeID()] = n
	}
	for _, n := range nodes {
		for _, dep := range n.InputNodes() {
			if _, ok := byID[dep]; !ok {
				return nil, &gnode.GraphConstructionError{NodeID: n.NodeID(), Detail: fmt.Sprintf("input %v", dep), Err: gnode.ErrDanglingInput}
			}
		}
	}
	if _, ok := byID[sink]; !ok {
		return nil, &gnode.GraphConstructionError{NodeID: sink, Err: gnode.ErrDanglingInput}
	}

	order, err := topologicalOrder(nodes, byID)
	if err != nil {
		return nil, err
	}

	bufs := make(map[T]*buffer.Buffer, len(nodes))
	for _, n := range nodes {
		bufs[n.NodeID()] = buffer.New(cfg.BlockSize)
	}

	log.WithField("node_count", len(nodes)).Debug("graph constructed")

	return &Processor[T]{
		cfg:    cfg,
		nodes:  byID,
		order:  order,
		bufs:   bufs,
		sink:   sink,
		log:    log,
		metric: metrics.NewGraph(),
	}, nil
}

// topologicalOrder produces a linear order such that every node appears
// after all of its input nodes, except that an edge from a node whose
// ProvidesDelay() is true is ignored for ordering purposes (spec.md
// §4.2). Implemented as Kahn's algorithm over the relaxed edge set.
func topologicalOrder[T gnode.ID](nodes []gnode.Node[T], byID map[T]gnode.Node[T]) ([]T, error) {
	// indegree and forward adjacency over the relaxed graph: an edge
	// dep -> n is counted (and used for ordering) only if dep does NOT
	// provide delay.
	indegree := make(map[T]int, len(nodes))
	forward := make(map[T][]T, len(nodes))
	for _, n := range nodes {
		id := n.NodeID()
		indegree[id] = 0
	}
	for _, n := range nodes {
		id := n.NodeID()
		for _, dep := range n.InputNodes() {
			if byID[dep].ProvidesDelay() {
				continue
			}
			forward[dep] = append(forward[dep], id)
			indegree[id]++
		}
	}

	// Stable starting order: iterate nodes in the order supplied so
	// ties resolve deterministically.
	var queue []T
	seenQueued := make(map[T]bool, len(nodes))
	for _, n := range nodes {
		id := n.NodeID()
		if indegree[id] == 0 && !seenQueued[id] {
			queue = append(queue, id)
			seenQueued[id] = true
		}
	}

	order := make([]T, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range forward[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(nodes) {
		// Find a node still stuck with nonzero indegree to report.
		for _, n := range nodes {
			if indegree[n.NodeID()] > 0 {
				return nil, &gnode.GraphConstructionError{NodeID: n.NodeID(), Err: gnode.ErrUnresolvableCycle}
			}
		}
		return nil, &gnode.GraphConstructionError{Err: gnode.ErrUnresolvableCycle}
	}

	return order, nil
}

// RenderBlock processes one block: for each node in topological order, it
// collects read-only references to its inputs' already-computed buffers,
// calls Prepare then Process, and returns the sink node's output.
//
// The returned error is always nil: Process has no error result, so the
// sync engine has no failure to report, and there is no retry. A panic
// raised inside a node (for example a graphcore_debug AssertContract) is
// not recovered here and propagates to the caller.
func (p *Processor[T]) RenderBlock(ctx *procctx.Context) (buffer.View, error) {
	stop := p.metric.StartBlock()
	defer stop()

	for _, id := range p.order {
		n := p.nodes[id]
		deps := n.InputNodes()
		inputs := make([]buffer.View, len(deps))
		for i, dep := range deps {
			inputs[i] = p.bufs[dep].View()
		}

		n.Prepare(ctx)
		n.Process(inputs, p.bufs[id].Mutable(), p.cfg.SampleRate, ctx)
	}

	return p.bufs[p.sink].View(), nil
}

// Order returns the computed topological order, for tests and debugging.
func (p *Processor[T]) Order() []T {
	out := make([]T, len(p.order))
	copy(out, p.order)
	return out
}
