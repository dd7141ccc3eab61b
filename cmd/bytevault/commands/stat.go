package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bytevault/bytevault/internal/bytesize"
	"github.com/bytevault/bytevault/internal/cli/output"
)

var statCmd = &cobra.Command{
	Use:   "stat <name>",
	Short: "Show file details",
	Long: `Show the metadata record of a single file.

Examples:
  bytevault stat backup.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func runStat(cmd *cobra.Command, args []string) error {
	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	rec, err := reg.Stat(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", args[0], err)
	}

	output.KeyValue(os.Stdout, [][2]string{
		{"Name", rec.Name},
		{"ID", rec.ID.String()},
		{"Size", fmt.Sprintf("%s (%d bytes)", bytesize.ByteSize(rec.Length), rec.Length)},
		{"Created", rec.CreatedAt.Local().Format(time.DateTime)},
		{"Modified", rec.ModifiedAt.Local().Format(time.DateTime)},
	})

	return nil
}
