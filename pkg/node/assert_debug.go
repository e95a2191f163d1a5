//go:build graphcore_debug

package node

import "fmt"

// AssertContract panics when a node receives the wrong number of inputs or
// a mismatched buffer length — a ProcessingContractViolation per spec.md
// §7, which is a programming error, not a runtime fault. Only active in
// graphcore_debug builds, mirroring the teacher's
// pkg/thread/thread_check_debug.go / thread_check_release.go split.
func AssertContract(nodeID interface{}, ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("processing contract violation at node %v: %s", nodeID, fmt.Sprintf(format, args...)))
	}
}
