package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bytevault/bytevault/pkg/bufpool"
)

var getCmd = &cobra.Command{
	Use:   "get <name> [file]",
	Short: "Read a store file",
	Long: `Read a file from the store and write it to a local file, or to
stdout when the destination is omitted or "-".

Examples:
  # Restore to a local file
  bytevault get backup.tar /tmp/backup.tar

  # Stream to stdout
  bytevault get etc.tar | tar -t`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	var dst io.Writer = os.Stdout
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("failed to create destination file: %w", err)
		}
		defer func() { _ = f.Close() }()
		dst = f
	}

	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	ctx := context.Background()

	// Open creates on first use; a read of a missing name must fail
	// instead, without leaving an empty record behind.
	if _, err := reg.Stat(ctx, name); err != nil {
		return fmt.Errorf("failed to read %q: %w", name, err)
	}

	h, err := reg.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", name, err)
	}
	defer func() { _ = h.Close() }()

	length, err := h.Length(ctx)
	if err != nil {
		return fmt.Errorf("failed to get length of %q: %w", name, err)
	}

	buf := bufpool.Get(bufpool.ChunkSize)
	defer bufpool.Put(buf)

	var offset int64
	for offset < length {
		chunk := buf
		if remaining := length - offset; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := h.ReadAt(ctx, chunk, offset)
		if err != nil {
			return fmt.Errorf("failed to read %q at offset %d: %w", name, offset, err)
		}
		if n == 0 {
			break
		}

		if _, err := dst.Write(chunk[:n]); err != nil {
			return fmt.Errorf("failed to write destination: %w", err)
		}
		offset += int64(n)
	}

	return h.Close()
}
