package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bytevault/bytevault/internal/bytesize"
	"github.com/bytevault/bytevault/pkg/bufpool"
)

var putCmd = &cobra.Command{
	Use:   "put <name> [file]",
	Short: "Write a local file into the store",
	Long: `Write data into a store file, creating it if necessary.

The source is a local file, or stdin when omitted or "-". Existing
content is replaced.

Examples:
  # Store a local file
  bytevault put backup.tar /tmp/backup.tar

  # Store from stdin
  tar -c /etc | bytevault put etc.tar`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func runPut(cmd *cobra.Command, args []string) error {
	name := args[0]

	var src io.Reader = os.Stdin
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open source file: %w", err)
		}
		defer func() { _ = f.Close() }()
		src = f
	}

	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	ctx := context.Background()
	h, err := reg.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", name, err)
	}
	defer func() { _ = h.Close() }()

	// Replace any previous content.
	if err := h.SetLength(ctx, 0); err != nil {
		return fmt.Errorf("failed to truncate %q: %w", name, err)
	}

	buf := bufpool.Get(bufpool.ChunkSize)
	defer bufpool.Put(buf)

	var offset int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := h.WriteAt(ctx, buf[:n], offset); err != nil {
				return fmt.Errorf("failed to write %q at offset %d: %w", name, offset, err)
			}
			offset += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("failed to read source: %w", readErr)
		}
	}

	if err := h.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush %q: %w", name, err)
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", name, err)
	}

	fmt.Printf("Stored %s (%s)\n", name, bytesize.ByteSize(offset))
	return nil
}
