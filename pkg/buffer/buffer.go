// Package buffer implements the fixed-size sample buffer and the
// process-wide buffer pool that recycles them, plus the read-only/
// writable views the node contract uses to enforce the "never read your
// own output before writing it" and "inputs are read-only" invariants at
// the type level.
package buffer

import "errors"

// Errors returned by buffer operations.
var (
	ErrLengthMismatch = errors.New("buffer: length mismatch")
)

// Buffer is a contiguous block of block_size float32 samples.
type Buffer struct {
	samples []float32
}

// New allocates a Buffer of the given length, zeroed.
func New(length int) *Buffer {
	return &Buffer{samples: make([]float32, length)}
}

// Len returns the buffer's fixed length.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Clear zeros every sample.
func (b *Buffer) Clear() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// View returns a read-only view over the buffer's contents.
func (b *Buffer) View() View {
	return View{samples: b.samples}
}

// Mutable returns a writable view over the buffer's contents.
func (b *Buffer) Mutable() Mutable {
	return Mutable{samples: b.samples}
}

// Raw exposes the underlying slice. Reserved for the pool and for code that
// must pass the buffer across a boundary (e.g. a WAV encoder in a harness);
// node implementations use View/Mutable instead.
func (b *Buffer) Raw() []float32 {
	return b.samples
}

// View is a read-only window onto a Buffer's samples. It intentionally
// exposes no mutation method, mirroring the read/write split the teacher
// enforces through separate helper functions (ApplyGain vs indexing) in
// pkg/audio/buffer.go — Go has no const qualifier, so the wrapper type is
// graphcore's equivalent device.
type View struct {
	samples []float32
}

// Len returns the number of samples in the view.
func (v View) Len() int { return len(v.samples) }

// At returns the sample at index i. Panics on out-of-range i, which is a
// ProcessingContractViolation per spec — a programming error, not a
// runtime fault a node should recover from.
func (v View) At(i int) float32 { return v.samples[i] }

// Slice returns the backing slice for read-only iteration. Callers must
// not mutate the returned slice.
func (v View) Slice() []float32 { return v.samples }

// Mutable is a writable window onto a Buffer's samples.
type Mutable struct {
	samples []float32
}

// Len returns the number of samples in the view.
func (m Mutable) Len() int { return len(m.samples) }

// Set writes value at index i.
func (m Mutable) Set(i int, value float32) { m.samples[i] = value }

// At returns the sample currently at index i.
func (m Mutable) At(i int) float32 { return m.samples[i] }

// Slice returns the backing slice for bulk writes.
func (m Mutable) Slice() []float32 { return m.samples }

// Fill sets every sample to value.
func (m Mutable) Fill(value float32) {
	for i := range m.samples {
		m.samples[i] = value
	}
}

// CopyFrom copies src into m sample-for-sample. Returns ErrLengthMismatch
// if the lengths differ.
func (m Mutable) CopyFrom(src View) error {
	if len(m.samples) != len(src.samples) {
		return ErrLengthMismatch
	}
	copy(m.samples, src.samples)
	return nil
}
