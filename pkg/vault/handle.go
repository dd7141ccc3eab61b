// Package vault implements storage handles over a fixed-capacity byte store.
//
// A Handle is the lifecycle manager for one open file: it gates every data
// operation behind an admission check, delegates admitted operations to the
// storage Backend, and owns the close state machine.
//
// Lifecycle:
//
//	StateOpen --Close()--> StateClosing --release done--> StateClosed
//
// The state only moves forward. The first Close transitions the handle to
// StateClosing before it suspends, so an operation issued after Close -
// even in the same synchronous turn - is rejected with an InvalidState
// error. Operations admitted while the handle was still open are never
// retroactively failed: they run to completion with the backend's own
// result, and the release step waits for them.
//
// Close is idempotent. Every call, first or not, concurrent or sequential,
// settles to the same canonical nil result, and the backend is released
// exactly once.
//
// Key Design Principles:
//   - Admission check and state transition are atomic (one mutex)
//   - Close never fails; release errors are logged, not surfaced
//   - State errors never wrap backend errors
package vault

import (
	"context"
	"sync"
	"time"

	"github.com/bytevault/bytevault/internal/logger"
)

// State is the lifecycle state of a Handle.
type State int

const (
	// StateOpen admits data operations.
	StateOpen State = iota

	// StateClosing rejects new operations; admitted ones may still be
	// running and the backend has not been released yet.
	StateClosing

	// StateClosed is terminal: the backend has been released.
	StateClosed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Operation kind labels, used for logging and metrics.
const (
	OpRead      = "read"
	OpWrite     = "write"
	OpFlush     = "flush"
	OpLength    = "get_length"
	OpSetLength = "set_length"
)

// Handle is a live reference to an open file. It is created by the
// registry (or NewHandle for embedded use) and permits data operations
// until closed.
//
// All methods are safe for concurrent use. Multiple data operations may
// be in flight at once; ordering between overlapping operations is the
// backend's concern.
type Handle struct {
	name    string
	backend Backend
	metrics HandleMetrics // nil disables metrics

	mu      sync.Mutex
	state   State
	pending sync.WaitGroup // operations admitted while open

	closeDone chan struct{} // closed exactly once, when state reaches StateClosed
	onClosed  func()        // optional registry callback, runs after release
}

// NewHandle creates a handle in StateOpen over the given backend.
//
// The handle takes ownership of the backend: Release is invoked exactly
// once by Close, and nothing else may release it. metrics may be nil.
func NewHandle(name string, backend Backend, metrics HandleMetrics) *Handle {
	return &Handle{
		name:      name,
		backend:   backend,
		metrics:   metrics,
		state:     StateOpen,
		closeDone: make(chan struct{}),
	}
}

// Name returns the file name the handle was opened with.
func (h *Handle) Name() string {
	return h.name
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SetOnClosed registers a callback invoked once, after the backend has
// been released and before Close callers are signalled. Used by the
// registry to drop its open-handle tracking. Must be called before Close.
func (h *Handle) SetOnClosed(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClosed = fn
}

// admit checks the lifecycle state and registers an in-flight operation.
//
// The state read and the pending registration happen under one critical
// section, so an operation cannot observe StateOpen and still slip in
// after a concurrent Close has transitioned the handle.
func (h *Handle) admit() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateOpen {
		return NewInvalidStateError(h.name)
	}

	h.pending.Add(1)
	return nil
}

// ReadAt reads len(buf) bytes starting at offset.
//
// Fails with an InvalidState error if the handle is not open, without
// touching the backend. Otherwise returns the backend's result: the
// number of bytes read, short at end of file.
func (h *Handle) ReadAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := h.admit(); err != nil {
		h.observe(OpRead, 0, 0, err)
		return 0, err
	}
	defer h.pending.Done()

	start := time.Now()
	n, err := h.backend.ReadAt(ctx, buf, offset)
	h.observe(OpRead, n, time.Since(start), err)
	return n, err
}

// WriteAt writes buf starting at offset, extending the file as needed.
//
// Fails with an InvalidState error if the handle is not open, without
// touching the backend.
func (h *Handle) WriteAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := h.admit(); err != nil {
		h.observe(OpWrite, 0, 0, err)
		return 0, err
	}
	defer h.pending.Done()

	start := time.Now()
	n, err := h.backend.WriteAt(ctx, buf, offset)
	h.observe(OpWrite, n, time.Since(start), err)
	return n, err
}

// Flush forces written bytes to durable storage.
func (h *Handle) Flush(ctx context.Context) error {
	if err := h.admit(); err != nil {
		h.observe(OpFlush, 0, 0, err)
		return err
	}
	defer h.pending.Done()

	start := time.Now()
	err := h.backend.Flush(ctx)
	h.observe(OpFlush, 0, time.Since(start), err)
	return err
}

// Length returns the current byte length of the file.
func (h *Handle) Length(ctx context.Context) (int64, error) {
	if err := h.admit(); err != nil {
		h.observe(OpLength, 0, 0, err)
		return 0, err
	}
	defer h.pending.Done()

	start := time.Now()
	n, err := h.backend.Length(ctx)
	h.observe(OpLength, 0, time.Since(start), err)
	return n, err
}

// SetLength truncates or zero-extends the file to length bytes.
func (h *Handle) SetLength(ctx context.Context, length int64) error {
	if length < 0 {
		return NewInvalidArgumentError("length must be non-negative")
	}

	if err := h.admit(); err != nil {
		h.observe(OpSetLength, 0, 0, err)
		return err
	}
	defer h.pending.Done()

	start := time.Now()
	err := h.backend.SetLength(ctx, length)
	h.observe(OpSetLength, 0, time.Since(start), err)
	return err
}

// Close closes the handle. It always returns nil.
//
// The first call transitions the handle to StateClosing synchronously,
// so no further operations are admitted, then waits for every admitted
// operation to finish, releases the backend exactly once, and moves the
// handle to StateClosed. A release failure is logged and swallowed; from
// the caller's perspective close has succeeded.
//
// Every subsequent call, whether the first is still in progress or long
// settled, waits on the same completion and returns the same nil result.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.state != StateOpen {
		// Another caller owns the teardown; wait for it.
		h.mu.Unlock()
		<-h.closeDone
		return nil
	}
	h.state = StateClosing
	h.mu.Unlock()

	start := time.Now()

	// No admission can happen past this point, so the pending count only
	// decreases from here.
	h.pending.Wait()

	if err := h.backend.Release(); err != nil {
		logger.Warn("backend release failed",
			"handle", h.name,
			"error", err,
		)
	}

	h.mu.Lock()
	h.state = StateClosed
	onClosed := h.onClosed
	h.mu.Unlock()

	if onClosed != nil {
		onClosed()
	}

	if h.metrics != nil {
		h.metrics.ObserveClose(time.Since(start))
	}

	close(h.closeDone)
	return nil
}

// observe records an operation outcome when metrics are enabled.
func (h *Handle) observe(op string, bytes int, d time.Duration, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveOp(op, bytes, d, err)
}
