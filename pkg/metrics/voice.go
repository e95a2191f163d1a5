package metrics

import "github.com/prometheus/client_golang/prometheus"

// Voice collects polyphony pressure for a voice.Manager.
type Voice struct {
	Steals        prometheus.Counter
	ActiveVoices  prometheus.Gauge
	TriggersTotal prometheus.Counter
}

// NewVoice registers a Voice's collectors against the default registerer.
func NewVoice() *Voice {
	steals := registerOrReuseCounter(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphcore",
		Subsystem: "voice",
		Name:      "steals_total",
		Help:      "Total number of voices forcibly stolen to satisfy a trigger.",
	}))
	active := registerOrReuseGauge(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphcore",
		Subsystem: "voice",
		Name:      "active",
		Help:      "Number of currently active voices.",
	}))
	triggers := registerOrReuseCounter(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "graphcore",
		Subsystem: "voice",
		Name:      "triggers_total",
		Help:      "Total number of voice trigger requests, whether or not they required a steal.",
	}))

	return &Voice{Steals: steals, ActiveVoices: active, TriggersTotal: triggers}
}

func registerOrReuseGauge(g prometheus.Gauge) prometheus.Gauge {
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
	}
	return g
}
