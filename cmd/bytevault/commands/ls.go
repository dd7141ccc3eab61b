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

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List files in the store",
	Long: `List all files in the store with their sizes and modification times.

Examples:
  bytevault ls`,
	RunE: runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	records, err := reg.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No files in store.")
		return nil
	}

	table := output.NewTable("NAME", "SIZE", "MODIFIED")
	for _, rec := range records {
		table.AddRow(
			rec.Name,
			bytesize.ByteSize(rec.Length).String(),
			rec.ModifiedAt.Local().Format(time.DateTime),
		)
	}
	table.Render(os.Stdout)

	return nil
}
