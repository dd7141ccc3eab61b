// Package file implements the durable, file-backed storage backend.
//
// Each vault file maps to one flat file on the local filesystem. Reads
// and writes are positional (pread/pwrite via os.File), flush syncs
// written bytes to disk (fdatasync on Linux, fsync elsewhere), and
// grows are charged against the store's capacity ledger before any
// byte is written.
package file

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/bytevault/bytevault/pkg/vault"
	"github.com/bytevault/bytevault/pkg/vault/capacity"
)

// Backend is a durable implementation of vault.Backend over one os.File.
type Backend struct {
	name string // vault file name, for error context

	mu     sync.Mutex
	f      *os.File
	length int64
	ledger *capacity.Ledger // nil = uncapped
}

// Compile-time interface check.
var _ vault.Backend = (*Backend)(nil)

// Open opens (or creates) the data file at path. The vault name is used
// only for error context. ledger may be nil for an uncapped backend.
//
// An existing file's length is not charged to the ledger here; the
// registry accounts for it when the store is opened.
func Open(name, path string, ledger *capacity.Ledger) (*Backend, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, vault.NewIOError(name, fmt.Errorf("open data file: %w", err))
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, vault.NewIOError(name, fmt.Errorf("stat data file: %w", err))
	}

	return &Backend{
		name:   name,
		f:      f,
		length: info.Size(),
		ledger: ledger,
	}, nil
}

// ReadAt reads len(buf) bytes starting at offset. Reads at or past the
// end of the file return (0, nil); reads crossing it return short.
func (b *Backend) ReadAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	length := b.length
	f := b.f
	b.mu.Unlock()

	if offset >= length {
		return 0, nil
	}
	if max := length - offset; int64(len(buf)) > max {
		buf = buf[:max]
	}

	n, err := f.ReadAt(buf, offset)
	if err != nil {
		return n, vault.NewIOError(b.name, fmt.Errorf("read at %d: %w", offset, err))
	}
	return n, nil
}

// WriteAt writes buf starting at offset, extending the file as needed.
// Growth beyond the current length is charged to the ledger first; a
// failed grant leaves the file untouched.
func (b *Backend) WriteAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	end := offset + int64(len(buf))
	if grow := end - b.length; grow > 0 && b.ledger != nil {
		if err := b.ledger.Grant(uint64(grow)); err != nil {
			return 0, err
		}
	}

	n, err := b.f.WriteAt(buf, offset)
	if end > b.length {
		// Charge only what was actually written on a short write.
		written := offset + int64(n)
		if written < end && b.ledger != nil {
			over := end - written
			if written < b.length {
				over = end - b.length
			}
			b.ledger.Release(uint64(over))
		}
		if written > b.length {
			b.length = written
		}
	}
	if err != nil {
		return n, vault.NewIOError(b.name, fmt.Errorf("write at %d: %w", offset, err))
	}
	return n, nil
}

// Flush forces written bytes to disk. The sync call is
// platform-specific; see flush_linux.go and flush_default.go.
func (b *Backend) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	f := b.f
	b.mu.Unlock()

	return b.sync(f)
}

// Length returns the current byte length of the file.
func (b *Backend) Length(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length, nil
}

// SetLength truncates or zero-extends the file to length bytes.
func (b *Backend) SetLength(ctx context.Context, length int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if grow := length - b.length; grow > 0 && b.ledger != nil {
		if err := b.ledger.Grant(uint64(grow)); err != nil {
			return err
		}
	}

	if err := b.f.Truncate(length); err != nil {
		if length > b.length && b.ledger != nil {
			b.ledger.Release(uint64(length - b.length))
		}
		return vault.NewIOError(b.name, fmt.Errorf("truncate to %d: %w", length, err))
	}

	if length < b.length && b.ledger != nil {
		b.ledger.Release(uint64(b.length - length))
	}
	b.length = length
	return nil
}

// Release closes the descriptor. The file's bytes stay charged to the
// ledger; they are returned when the registry deletes the file.
func (b *Backend) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	if err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	return nil
}

// CurrentLength returns the tracked length. Used by the registry to
// persist the file record when a handle closes.
func (b *Backend) CurrentLength() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}
