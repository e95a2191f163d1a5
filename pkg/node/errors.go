package node

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions with no node-specific detail to attach.
var (
	// ErrDanglingInput is returned at graph construction when a node
	// declares an input NodeID that no node in the graph provides.
	ErrDanglingInput = errors.New("node: dangling input reference")

	// ErrDuplicateID is returned at graph construction when two nodes
	// share the same ID.
	ErrDuplicateID = errors.New("node: duplicate node id")

	// ErrUnresolvableCycle is returned at graph construction when a
	// dependency cycle remains after relaxing edges out of
	// ProvidesDelay()==true nodes.
	ErrUnresolvableCycle = errors.New("node: unresolvable cycle: expected a delay element")
)

// GraphConstructionError wraps a sentinel construction error with the
// node (and, where relevant, the input) that triggered it, mirroring the
// teacher's *ParameterError/*ProcessError detail-struct convention in
// pkg/plugin/interface.go.
type GraphConstructionError struct {
	NodeID interface{}
	Detail string
	Err    error
}

func (e *GraphConstructionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("graph construction: node %v: %s: %v", e.NodeID, e.Detail, e.Err)
	}
	return fmt.Sprintf("graph construction: node %v: %v", e.NodeID, e.Err)
}

func (e *GraphConstructionError) Unwrap() error {
	return e.Err
}

// ResourceExhaustionError reports that a pool or channel disconnected
// permanently during a render, naming the originating node per spec.md §7.
type ResourceExhaustionError struct {
	NodeID interface{}
	Err    error
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("resource exhaustion at node %v: %v", e.NodeID, e.Err)
}

func (e *ResourceExhaustionError) Unwrap() error {
	return e.Err
}

// ErrChannelDisconnected is wrapped inside a ResourceExhaustionError when
// the dataflow runtime finds the sink's output channel closed while
// waiting for a block.
var ErrChannelDisconnected = errors.New("channel disconnected")
