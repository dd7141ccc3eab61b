//go:build linux

package file

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bytevault/bytevault/pkg/vault"
)

// sync flushes file data via fdatasync, which skips the metadata sync a
// full fsync would pay for.
func (b *Backend) sync(f *os.File) error {
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		return vault.NewIOError(b.name, fmt.Errorf("fdatasync: %w", err))
	}
	return nil
}
