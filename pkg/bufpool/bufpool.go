// Package bufpool provides a tiered buffer pool for streaming I/O.
//
// The pool hands out reusable byte slices in three size classes so that
// put/get style transfers do not allocate a fresh chunk per call:
//   - Small buffers (4KB): metadata records and short reads
//   - Chunk buffers (256KB): the default unit for streaming transfers
//   - Large buffers (1MB): bulk copies of big files
//
// Requests above the large class are allocated directly and never pooled,
// so an occasional oversized transfer does not pin memory.
//
// All operations are safe for concurrent use via sync.Pool.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import "sync"

// Buffer size classes.
const (
	// SmallSize covers metadata and short reads (4KB).
	SmallSize = 4 << 10

	// ChunkSize is the streaming transfer unit (256KB).
	ChunkSize = 256 << 10

	// LargeSize covers bulk copies (1MB).
	LargeSize = 1 << 20
)

// Pool manages byte slice pools organized by size class. It selects the
// smallest class that fits the requested size and falls back to direct
// allocation for oversized requests.
type Pool struct {
	small sync.Pool
	chunk sync.Pool
	large sync.Pool
}

// NewPool creates a new buffer pool.
func NewPool() *Pool {
	p := &Pool{}
	p.small.New = func() any {
		buf := make([]byte, SmallSize)
		return &buf
	}
	p.chunk.New = func() any {
		buf := make([]byte, ChunkSize)
		return &buf
	}
	p.large.New = func() any {
		buf := make([]byte, LargeSize)
		return &buf
	}
	return p
}

// Get returns a byte slice of exactly the requested length, backed by a
// pooled buffer whose capacity may be larger. The caller must call Put
// when finished, otherwise buffers accumulate outside the pool.
//
// Sizes above LargeSize are allocated directly and will not be pooled.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= SmallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= ChunkSize:
		bufPtr = p.chunk.Get().(*[]byte)
	case size <= LargeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	return (*bufPtr)[:size]
}

// Put returns a buffer to the pool for reuse. The buffer must have been
// obtained from Get and must not be used after Put.
//
// Buffers that do not match a size class capacity are dropped and left
// to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	switch cap(buf) {
	case SmallSize:
		full := buf[:cap(buf)]
		p.small.Put(&full)
	case ChunkSize:
		full := buf[:cap(buf)]
		p.chunk.Put(&full)
	case LargeSize:
		full := buf[:cap(buf)]
		p.large.Put(&full)
	}
}

// globalPool is the package-level pool shared by all users of the package.
var globalPool = NewPool()

// Get returns a byte slice of at least the requested size from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool. Pair with Get using defer.
func Put(buf []byte) {
	globalPool.Put(buf)
}
