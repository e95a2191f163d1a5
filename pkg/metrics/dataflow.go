package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dataflow collects channel back-pressure and pool diagnostics for the
// concurrent node-task runtime.
type Dataflow struct {
	ChannelDepth  *prometheus.GaugeVec
	TasksStopped  prometheus.Counter
	PoolHighWater prometheus.Gauge
}

// NewDataflow registers a Dataflow's collectors against the default
// registerer.
func NewDataflow() *Dataflow {
	depth := registerOrReuseGaugeVec(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "graphcore",
		Subsystem: "dataflow",
		Name:      "channel_depth",
		Help:      "Number of buffered blocks waiting in a node task's input channel.",
	}, []string{"node"}))
	stopped := registerOrReuseCounter(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphcore",
		Subsystem: "dataflow",
		Name:      "tasks_stopped_total",
		Help:      "Total number of node tasks that have exited their run loop.",
	}))
	highWater := registerOrReuseGauge(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphcore",
		Subsystem: "dataflow",
		Name:      "pool_high_water_mark",
		Help:      "High-water mark of concurrently outstanding buffers across all pools.",
	}))

	return &Dataflow{ChannelDepth: depth, TasksStopped: stopped, PoolHighWater: highWater}
}

func registerOrReuseGaugeVec(g *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.GaugeVec)
		}
	}
	return g
}
