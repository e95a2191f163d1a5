// Package pattern declares the external collaborator interfaces the
// pattern-sample node depends on (spec.md §6): a cycle-time pattern
// query and a name-to-sample-data lookup. Their mini-notation parsing
// and sample-file loading implementations are out of scope for this
// core (spec.md §1) — only the signatures, grounded on
// original_source/src/pattern.rs and src/sample_loader.rs, live here.
package pattern

import "github.com/tesserae-audio/graphcore/pkg/rational"

// Event is one scheduled occurrence of a value within a queried span.
// Begin and End are exact cycle positions; a caller discards any event
// whose Begin falls outside the span it queried.
type Event[V any] struct {
	Value V
	Begin rational.Rational
	End   rational.Rational
}

// Span is a half-open cycle-time interval [Begin, End).
type Span struct {
	Begin rational.Rational
	End   rational.Rational
}

// State is what a Pattern receives on Query: the span to evaluate and
// any named control values in scope for that query (tempo changes,
// swing, or other per-cycle modulations a richer pattern language might
// consult).
type State struct {
	Span     Span
	Controls map[string]float64
}

// Pattern produces Events of type V for a queried span. Implementations
// (e.g. a mini-notation parser, a Euclidean rhythm generator, a
// probability-weighted chooser) live outside this core.
type Pattern[V any] interface {
	Query(state State) []Event[V]
}

// SampleBank resolves a sample name to shared, read-only audio data.
// Implementations may support an indexed-suffix convention such as
// "bd:0", "bd:1"; the sentinel name "~" is never looked up — callers
// treat it as an explicit rest before calling Get.
type SampleBank interface {
	Get(name string) (data []float32, ok bool)
}
