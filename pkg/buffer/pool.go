package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Pool is a process-wide recycler of fixed-size Buffers. It is the only
// globally shared mutable state besides the voice manager and the
// dataflow shutdown flag (spec.md §5), so its operations are kept to a
// short-held sync.Mutex-free sync.Pool plus atomic diagnostics, the same
// shape the teacher uses for its event.Pool (pkg/event/pool.go).
type Pool struct {
	length int
	pool   sync.Pool

	totalAllocations uint64
	poolHits         uint64
	poolMisses       uint64
	highWaterMark    uint64
	currentOut       uint64

	log *logrus.Entry
}

// NewPool creates a pool that hands out Buffers of the given fixed length.
func NewPool(length int, log *logrus.Entry) *Pool {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &Pool{length: length, log: log.WithField("component", "buffer.Pool")}
	p.pool.New = func() interface{} {
		atomic.AddUint64(&p.totalAllocations, 1)
		atomic.AddUint64(&p.poolMisses, 1)
		return New(p.length)
	}
	return p
}

// Prefill populates the pool with n buffers ahead of the first render, so
// the first block or two does not pay an allocation inside the real-time
// path.
func (p *Pool) Prefill(n int) {
	bufs := make([]*Buffer, n)
	for i := range bufs {
		bufs[i] = p.Acquire()
	}
	for _, b := range bufs {
		p.Release(b)
	}
}

// Acquire returns a zeroed Buffer of the pool's fixed length, allocating a
// new one if the free-list is empty.
func (p *Pool) Acquire() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Clear()
	atomic.AddUint64(&p.poolHits, 1)
	cur := atomic.AddUint64(&p.currentOut, 1)
	for {
		high := atomic.LoadUint64(&p.highWaterMark)
		if cur <= high || atomic.CompareAndSwapUint64(&p.highWaterMark, high, cur) {
			break
		}
	}
	return b
}

// Release returns a Buffer to the free-list. Callers in the concurrent
// engine must only call Release once they hold the last reference to the
// buffer — see Handle for the refcounted wrapper that enforces this.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		return
	}
	p.pool.Put(b)
	atomic.AddUint64(&p.currentOut, ^uint64(0))
}

// Diagnostics reports pool usage counters for observability.
func (p *Pool) Diagnostics() (totalAllocations, hits, misses, highWaterMark, currentOut uint64) {
	return atomic.LoadUint64(&p.totalAllocations),
		atomic.LoadUint64(&p.poolHits),
		atomic.LoadUint64(&p.poolMisses),
		atomic.LoadUint64(&p.highWaterMark),
		atomic.LoadUint64(&p.currentOut)
}

// LogDiagnostics emits the current pool counters at debug level.
func (p *Pool) LogDiagnostics() {
	total, hits, misses, high, cur := p.Diagnostics()
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	p.log.WithFields(logrus.Fields{
		"total_allocations": total,
		"hits":              hits,
		"misses":            misses,
		"hit_rate_pct":      hitRate,
		"high_water_mark":   high,
		"currently_out":     cur,
	}).Debug("buffer pool diagnostics")
}

// Handle is a reference-counted handle to a pool-owned Buffer, used by the
// dataflow runtime to fan a single computed block out to multiple
// downstream consumers. A Buffer is released to the pool only when the
// last Handle referencing it is dropped, mirroring
// original_source/src/node_task.rs's Arc<Vec<f32>> + Arc::try_unwrap
// release discipline (Go has no Arc, so refcounting is explicit here).
type Handle struct {
	buf  *Buffer
	pool *Pool
	refs *int32
	mu   *sync.Mutex
}

// NewHandle wraps buf in a Handle with an initial reference count of 1.
func NewHandle(buf *Buffer, pool *Pool) Handle {
	refs := int32(1)
	return Handle{buf: buf, pool: pool, refs: &refs, mu: &sync.Mutex{}}
}

// Buffer returns the underlying Buffer for read access. Every Handle
// sharing the same underlying Buffer must treat it as read-only — the
// single writer already finished writing before the first Handle was
// constructed.
func (h Handle) Buffer() *Buffer {
	return h.buf
}

// Clone returns a new Handle to the same Buffer, incrementing the shared
// reference count. Safe to call from multiple goroutines.
func (h Handle) Clone() Handle {
	h.mu.Lock()
	*h.refs++
	h.mu.Unlock()
	return h
}

// Release decrements the shared reference count and, if this was the last
// reference, returns the Buffer to the pool. Returns true if the buffer
// was released.
func (h Handle) Release() bool {
	h.mu.Lock()
	*h.refs--
	last := *h.refs == 0
	h.mu.Unlock()
	if last && h.pool != nil {
		h.pool.Release(h.buf)
		return true
	}
	return false
}
