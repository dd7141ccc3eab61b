package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a file from the store",
	Long: `Delete a file and release its capacity.

Fails if the file is currently open.

Examples:
  bytevault rm backup.tar`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	if err := reg.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete %q: %w", args[0], err)
	}

	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
