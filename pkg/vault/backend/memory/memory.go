// Package memory implements an in-memory storage backend.
//
// This backend keeps the whole file in a byte slice. It is used by the
// handle conformance tests and for ephemeral (non-durable) stores.
//
// Characteristics:
//   - Very fast (no I/O)
//   - Limited by available RAM
//   - Flush is a no-op
//
// Thread Safety:
// Safe for concurrent use. All operations on the same file are serialized
// by one mutex, which is acceptable at the sizes this backend targets.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bytevault/bytevault/pkg/vault"
	"github.com/bytevault/bytevault/pkg/vault/capacity"
)

// Backend is an in-memory implementation of vault.Backend.
type Backend struct {
	mu     sync.Mutex
	data   []byte
	ledger *capacity.Ledger // nil = uncapped

	released atomic.Int32
}

// Compile-time interface check.
var _ vault.Backend = (*Backend)(nil)

// New creates an empty in-memory backend. ledger may be nil for an
// uncapped backend; when set, grows are charged against it and the
// file's bytes are returned to it on Release.
func New(ledger *capacity.Ledger) *Backend {
	return &Backend{ledger: ledger}
}

// ReadAt reads len(buf) bytes starting at offset.
func (b *Backend) ReadAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if offset >= int64(len(b.data)) {
		return 0, nil
	}
	return copy(buf, b.data[offset:]), nil
}

// WriteAt writes buf starting at offset, extending the file as needed.
func (b *Backend) WriteAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	end := offset + int64(len(buf))
	if err := b.growLocked(end); err != nil {
		return 0, err
	}
	return copy(b.data[offset:end], buf), nil
}

// Flush is a no-op for the in-memory backend.
func (b *Backend) Flush(ctx context.Context) error {
	return ctx.Err()
}

// Length returns the current byte length of the file.
func (b *Backend) Length(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.data)), nil
}

// SetLength truncates or zero-extends the file to length bytes.
func (b *Backend) SetLength(ctx context.Context, length int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if length <= int64(len(b.data)) {
		if b.ledger != nil {
			b.ledger.Release(uint64(int64(len(b.data)) - length))
		}
		b.data = b.data[:length]
		return nil
	}
	return b.growLocked(length)
}

// Release drops the buffer and returns its bytes to the ledger.
func (b *Backend) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.released.Add(1)
	if b.ledger != nil {
		b.ledger.Release(uint64(len(b.data)))
	}
	b.data = nil
	return nil
}

// ReleaseCount returns how many times Release has been called. Test hook.
func (b *Backend) ReleaseCount() int {
	return int(b.released.Load())
}

// growLocked zero-extends the buffer to end bytes, charging the ledger.
func (b *Backend) growLocked(end int64) error {
	grow := end - int64(len(b.data))
	if grow <= 0 {
		return nil
	}
	if b.ledger != nil {
		if err := b.ledger.Grant(uint64(grow)); err != nil {
			return err
		}
	}
	b.data = append(b.data, make([]byte, grow)...)
	return nil
}
