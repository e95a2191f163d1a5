// Package node defines the Node contract every processing element in the
// graph implements: oscillators, filters, envelopes, delays, the
// pattern-sample node, and so on. It fixes the contract only — concrete
// DSP archetypes live in pkg/nodes.
package node

import (
	"github.com/google/uuid"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
)

// ID is an opaque, totally ordered-by-construction handle, stable for the
// lifetime of the graph. Either a small integer (for a fixed compile-time
// topology, the way the teacher's Rust source used a plain usize NodeId)
// or a uuid.UUID (for a graph assembled dynamically by a host
// application) satisfies this type — both are comparable and usable as
// map keys, which is all the graph and voice manager require.
type ID interface {
	comparable
}

// IntID is the small-integer ID flavor.
type IntID = int

// NewUUIDID mints a fresh UUID-backed node identity for dynamically built
// graphs.
func NewUUIDID() uuid.UUID {
	return uuid.New()
}

// Node is the block-processing contract every graph element implements.
// T is the node's ID type (IntID or uuid.UUID), letting a single graph
// pick one identity scheme and use it consistently.
type Node[T ID] interface {
	// NodeID returns this node's identity.
	NodeID() T

	// InputNodes returns the IDs of the nodes this node reads from, in
	// the exact order their buffers will appear in Process's inputs
	// argument. A source node with no inputs (e.g. Constant) returns nil.
	InputNodes() []T

	// Prepare is called once per block before Process. Source-consuming
	// nodes (the pattern-sample node) query their pattern and trigger
	// voices here; most nodes leave this a no-op.
	Prepare(ctx *procctx.Context)

	// Process reads every input buffer and writes exactly
	// ctx.BlockSize samples into output. It must not read output before
	// writing every sample of it, and must not allocate on this path.
	Process(inputs []buffer.View, output buffer.Mutable, sampleRate float64, ctx *procctx.Context)

	// ProvidesDelay reports whether this node may safely appear on the
	// far side of a feedback edge: its output for block N may be
	// computed from inputs no newer than block N-1. Delay lines, combs,
	// reverbs, ping-pong/tape delays, granular and waveguide nodes
	// return true; everything else returns false.
	ProvidesDelay() bool
}

// Base embeds the plumbing common to nearly every node: its ID and its
// declared inputs. Concrete nodes embed Base and only implement Prepare/
// Process/ProvidesDelay, the way most of the teacher's oscillator/filter
// helpers are plain structs with a fixed shape.
type Base[T ID] struct {
	ID     T
	Inputs []T
}

// NodeID implements part of the Node contract.
func (b Base[T]) NodeID() T { return b.ID }

// InputNodes implements part of the Node contract.
func (b Base[T]) InputNodes() []T { return b.Inputs }

// ProvidesDelay defaults to false; delay-bearing nodes override it.
func (b Base[T]) ProvidesDelay() bool { return false }

// Prepare defaults to a no-op; source-consuming nodes override it.
func (b Base[T]) Prepare(*procctx.Context) {}
