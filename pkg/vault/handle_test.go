package vault

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a controllable Backend for lifecycle tests.
//
// Gates let a test hold an operation or the release step open while it
// drives the handle from another goroutine. A nil gate means the call
// completes immediately.
type fakeBackend struct {
	mu       sync.Mutex
	data     []byte
	releases int
	calls    []string

	opStarted chan struct{} // signalled when a gated data op enters
	opGate    chan struct{} // data ops block until this is closed

	releaseStarted chan struct{} // signalled when Release enters
	releaseGate    chan struct{} // Release blocks until this is closed

	opErr error // injected failure for data operations
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeBackend) waitGate() {
	if f.opStarted != nil {
		f.opStarted <- struct{}{}
	}
	if f.opGate != nil {
		<-f.opGate
	}
}

func (f *fakeBackend) ReadAt(_ context.Context, buf []byte, offset int64) (int, error) {
	f.record("read")
	f.waitGate()
	if f.opErr != nil {
		return 0, f.opErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= int64(len(f.data)) {
		return 0, nil
	}
	return copy(buf, f.data[offset:]), nil
}

func (f *fakeBackend) WriteAt(_ context.Context, buf []byte, offset int64) (int, error) {
	f.record("write")
	f.waitGate()
	if f.opErr != nil {
		return 0, f.opErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	end := offset + int64(len(buf))
	if grow := end - int64(len(f.data)); grow > 0 {
		f.data = append(f.data, make([]byte, grow)...)
	}
	return copy(f.data[offset:end], buf), nil
}

func (f *fakeBackend) Flush(context.Context) error {
	f.record("flush")
	f.waitGate()
	return f.opErr
}

func (f *fakeBackend) Length(context.Context) (int64, error) {
	f.record("length")
	f.waitGate()
	if f.opErr != nil {
		return 0, f.opErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data)), nil
}

func (f *fakeBackend) SetLength(_ context.Context, length int64) error {
	f.record("set_length")
	f.waitGate()
	if f.opErr != nil {
		return f.opErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if length <= int64(len(f.data)) {
		f.data = f.data[:length]
	} else {
		f.data = append(f.data, make([]byte, length-int64(len(f.data)))...)
	}
	return nil
}

func (f *fakeBackend) Release() error {
	f.record("release")
	if f.releaseStarted != nil {
		f.releaseStarted <- struct{}{}
	}
	if f.releaseGate != nil {
		<-f.releaseGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return nil
}

func (f *fakeBackend) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releases
}

func (f *fakeBackend) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ============================================================================
// Close Idempotency
// ============================================================================

func TestHandle_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	h := NewHandle("test", b, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Close(), "close #%d", i+1)
	}

	assert.Equal(t, 1, b.releaseCount(), "backend must be released exactly once")
	assert.Equal(t, StateClosed, h.State())
}

func TestHandle_ConcurrentCloseSettlesOnce(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		releaseStarted: make(chan struct{}, 1),
		releaseGate:    make(chan struct{}),
	}
	h := NewHandle("test", b, nil)

	results := make(chan error, 2)
	go func() { results <- h.Close() }()

	// First closer is inside Release; issue a second close while the
	// first is still pending.
	<-b.releaseStarted
	go func() { results <- h.Close() }()

	close(b.releaseGate)

	require.NoError(t, <-results)
	require.NoError(t, <-results)
	assert.Equal(t, 1, b.releaseCount())
	assert.Equal(t, StateClosed, h.State())
}

// ============================================================================
// Post-Close Rejection
// ============================================================================

func TestHandle_OperationsAfterCloseAreRejected(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	h := NewHandle("test", b, nil)
	require.NoError(t, h.Close())

	ctx := context.Background()
	buf := make([]byte, 4)

	ops := map[string]func() error{
		"read":       func() error { _, err := h.ReadAt(ctx, buf, 0); return err },
		"write":      func() error { _, err := h.WriteAt(ctx, buf, 0); return err },
		"flush":      func() error { return h.Flush(ctx) },
		"get_length": func() error { _, err := h.Length(ctx); return err },
		"set_length": func() error { return h.SetLength(ctx, 5) },
	}

	for name, op := range ops {
		err := op()
		require.Error(t, err, "%s after close", name)
		assert.Equal(t, ErrInvalidState, Code(err), "%s after close", name)
	}

	// Rejected operations never reach the backend.
	assert.Equal(t, []string{"release"}, b.callLog())
}

func TestHandle_OperationsDuringCloseAreRejected(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		releaseStarted: make(chan struct{}, 1),
		releaseGate:    make(chan struct{}),
	}
	h := NewHandle("test", b, nil)

	closeDone := make(chan error, 1)
	go func() { closeDone <- h.Close() }()

	// Close is parked inside Release: state is Closing, not yet Closed.
	<-b.releaseStarted
	require.Equal(t, StateClosing, h.State())

	ctx := context.Background()
	buf := make([]byte, 4)

	_, err := h.ReadAt(ctx, buf, 0)
	assert.Equal(t, ErrInvalidState, Code(err))
	_, err = h.WriteAt(ctx, buf, 0)
	assert.Equal(t, ErrInvalidState, Code(err))
	assert.Equal(t, ErrInvalidState, Code(h.Flush(ctx)))
	_, err = h.Length(ctx)
	assert.Equal(t, ErrInvalidState, Code(err))
	assert.Equal(t, ErrInvalidState, Code(h.SetLength(ctx, 5)))

	// Close still settles to its canonical success value.
	close(b.releaseGate)
	require.NoError(t, <-closeDone)
	assert.Equal(t, StateClosed, h.State())

	// The same error kind is returned after close has fully settled.
	_, err = h.ReadAt(ctx, buf, 0)
	assert.Equal(t, ErrInvalidState, Code(err))
}

// ============================================================================
// No Retroactive Failure
// ============================================================================

func TestHandle_AdmittedOperationSurvivesClose(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		opStarted: make(chan struct{}, 1),
		opGate:    make(chan struct{}),
	}
	h := NewHandle("test", b, nil)

	ctx := context.Background()

	writeDone := make(chan error, 1)
	go func() {
		_, err := h.WriteAt(ctx, []byte("hello"), 0)
		writeDone <- err
	}()
	<-b.opStarted // write admitted and inside the backend

	closeDone := make(chan error, 1)
	go func() { closeDone <- h.Close() }()

	// Close must not settle while the admitted write is still running,
	// and new operations are already rejected.
	select {
	case <-closeDone:
		t.Fatal("close settled before the admitted operation finished")
	case <-time.After(50 * time.Millisecond):
	}
	_, err := h.ReadAt(ctx, make([]byte, 4), 0)
	assert.Equal(t, ErrInvalidState, Code(err))

	// The admitted write settles with its normal result, not a state error.
	close(b.opGate)
	require.NoError(t, <-writeDone)
	require.NoError(t, <-closeDone)

	// Release is ordered after the admitted operation completed.
	log := b.callLog()
	require.Equal(t, "release", log[len(log)-1])
	assert.Equal(t, 1, b.releaseCount())
}

func TestHandle_SetLengthThenImmediateClose(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		opStarted: make(chan struct{}, 1),
		opGate:    make(chan struct{}),
	}
	h := NewHandle("test", b, nil)
	ctx := context.Background()

	setDone := make(chan error, 1)
	go func() { setDone <- h.SetLength(ctx, 5) }()
	<-b.opStarted

	closeDone := make(chan error, 1)
	go func() { closeDone <- h.Close() }()

	close(b.opGate)

	// setLength was admitted under Open: it settles with the backend's
	// result, never with a state error.
	require.NoError(t, <-setDone)
	require.NoError(t, <-closeDone)

	n, err := b.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

// ============================================================================
// Error Taxonomy
// ============================================================================

func TestHandle_BackendErrorsPropagateUnchanged(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("disk on fire")
	b := &fakeBackend{opErr: backendErr}
	h := NewHandle("test", b, nil)

	_, err := h.ReadAt(context.Background(), make([]byte, 4), 0)
	require.ErrorIs(t, err, backendErr)
	assert.NotEqual(t, ErrInvalidState, Code(err), "backend errors must not be reported as state errors")

	require.NoError(t, h.Close())
}

func TestHandle_SetLengthRejectsNegative(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	h := NewHandle("test", b, nil)
	defer h.Close()

	err := h.SetLength(context.Background(), -1)
	assert.Equal(t, ErrInvalidArgument, Code(err))
	assert.Empty(t, b.callLog(), "invalid arguments never reach the backend")
}

// ============================================================================
// State Machine
// ============================================================================

func TestHandle_StateIsMonotonic(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{
		releaseStarted: make(chan struct{}, 1),
		releaseGate:    make(chan struct{}),
	}
	h := NewHandle("test", b, nil)
	require.Equal(t, StateOpen, h.State())

	done := make(chan error, 1)
	go func() { done <- h.Close() }()

	<-b.releaseStarted
	require.Equal(t, StateClosing, h.State())

	close(b.releaseGate)
	require.NoError(t, <-done)
	require.Equal(t, StateClosed, h.State())

	// Nothing revives a closed handle.
	require.NoError(t, h.Close())
	require.Equal(t, StateClosed, h.State())
}

func TestHandle_ConcurrentOperationsAndClose(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	h := NewHandle("test", b, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(off int64) {
			defer wg.Done()
			// Either outcome is legal; what is not legal is a state
			// error wrapping a backend failure or a panic.
			_, err := h.WriteAt(ctx, []byte("x"), off)
			if err != nil {
				assert.Equal(t, ErrInvalidState, Code(err))
			}
		}(int64(i))
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.Close())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, b.releaseCount())
	assert.Equal(t, StateClosed, h.State())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closing", StateClosing.String())
	assert.Equal(t, "closed", StateClosed.String())
}
