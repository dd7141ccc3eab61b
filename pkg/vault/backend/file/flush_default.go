//go:build !linux

package file

import (
	"fmt"
	"os"

	"github.com/bytevault/bytevault/pkg/vault"
)

// sync flushes file data via fsync on platforms without fdatasync.
func (b *Backend) sync(f *os.File) error {
	if err := f.Sync(); err != nil {
		return vault.NewIOError(b.name, fmt.Errorf("fsync: %w", err))
	}
	return nil
}
