// Package procctx defines the per-block timing and control record every
// node reads during Process, as spec.md §3.1's PROCESS-CONTEXT.
package procctx

import "github.com/tesserae-audio/graphcore/pkg/rational"

// Context is immutable once constructed; the engine builds exactly one per
// block and every node sees a read-only view of it.
type Context struct {
	// CyclePosition is the musical cycle position at the start of this
	// block.
	CyclePosition rational.Rational

	// SampleOffset is the sample index, within the overall render, of the
	// first sample of this block.
	SampleOffset int64

	// BlockSize is the number of samples in this block.
	BlockSize int

	// Tempo is the cycle rate in cycles per second.
	Tempo float64

	// SampleRate is the render's sample rate in Hz.
	SampleRate float64

	// Controls carries named scalar control values the engine injects
	// once per block (e.g. a host-provided "swing" or "gate" control);
	// nodes read these by name, not by wiring a dedicated input edge.
	Controls map[string]float64
}

// New builds a Context for a block.
func New(cyclePosition rational.Rational, sampleOffset int64, blockSize int, tempo, sampleRate float64) *Context {
	return &Context{
		CyclePosition: cyclePosition,
		SampleOffset:  sampleOffset,
		BlockSize:     blockSize,
		Tempo:         tempo,
		SampleRate:    sampleRate,
		Controls:      make(map[string]float64),
	}
}

// CyclePositionAt returns the cycle position at offsetInSamples samples
// past the start of this block:
//
//	cycle_position + (offset / sample_rate) * tempo
func (c *Context) CyclePositionAt(offsetInSamples int) rational.Rational {
	samplesPerCycle := c.SampleRate / c.Tempo
	delta := rational.FromFloat64(float64(offsetInSamples)/samplesPerCycle, 1<<24)
	return c.CyclePosition.Add(delta)
}

// Control returns a named control value, or the given default if absent.
func (c *Context) Control(name string, def float64) float64 {
	if v, ok := c.Controls[name]; ok {
		return v
	}
	return def
}
