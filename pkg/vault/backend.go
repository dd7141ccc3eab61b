package vault

import "context"

// Backend is the storage collaborator behind a Handle.
//
// A backend owns the bytes of exactly one file. The handle layer performs
// no buffering and no interpretation of the data; it only gates admission
// and delegates. Implementations live in pkg/vault/backend.
//
// Thread Safety:
// The handle layer admits multiple operations concurrently, so
// implementations must be safe for concurrent use. Ordering between
// overlapping reads and writes is the backend's concern.
//
// Release is called exactly once per backend instance, by the handle
// that owns it, after every admitted operation has completed. Backends
// do not need to guard against double release.
type Backend interface {
	// ReadAt reads len(buf) bytes starting at offset. Reads past the
	// current length return n < len(buf) with a nil error; a read whose
	// offset is at or beyond the length returns (0, nil).
	ReadAt(ctx context.Context, buf []byte, offset int64) (int, error)

	// WriteAt writes buf starting at offset, extending the file as
	// needed. Returns the number of bytes written.
	WriteAt(ctx context.Context, buf []byte, offset int64) (int, error)

	// Flush forces buffered bytes to durable storage.
	Flush(ctx context.Context) error

	// Length returns the current byte length of the file.
	Length(ctx context.Context) (int64, error)

	// SetLength truncates or zero-extends the file to length bytes.
	SetLength(ctx context.Context, length int64) error

	// Release frees the backend's resources (descriptor, buffers).
	// Called exactly once, after all admitted operations have finished.
	Release() error
}
