// Package metrics exposes Prometheus collectors for the graph and voice
// subsystems, replacing the teacher's hand-rolled atomic counters in
// pkg/performance with real collectors in the style of
// tphakala-birdnet-go's internal/observability/metrics Recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Graph collects per-block timing for a graph.Processor.
type Graph struct {
	blockDuration prometheus.Histogram
	blocksTotal   prometheus.Counter
}

// NewGraph registers a Graph's collectors against the default registerer.
// Registration errors (duplicate registration from constructing more than
// one Processor in a process) are tolerated: the already-registered
// collector is reused, mirroring prometheus.DefaultRegisterer's own
// AlreadyRegisteredError contract.
func NewGraph() *Graph {
	blockDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "graphcore",
		Subsystem: "graph",
		Name:      "block_duration_seconds",
		Help:      "Wall-clock time spent rendering one block across all nodes.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16),
	})
	blocksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphcore",
		Subsystem: "graph",
		Name:      "blocks_rendered_total",
		Help:      "Total number of blocks rendered.",
	})

	blockDuration = registerOrReuseHistogram(blockDuration)
	blocksTotal = registerOrReuseCounter(blocksTotal)

	return &Graph{blockDuration: blockDuration, blocksTotal: blocksTotal}
}

// StartBlock returns a function to call when the block finishes; calling
// it records the elapsed duration and increments the block counter.
func (g *Graph) StartBlock() func() {
	start := time.Now()
	return func() {
		g.blockDuration.Observe(time.Since(start).Seconds())
		g.blocksTotal.Inc()
	}
}

func registerOrReuseHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
	}
	return h
}

func registerOrReuseCounter(c prometheus.Counter) prometheus.Counter {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}
