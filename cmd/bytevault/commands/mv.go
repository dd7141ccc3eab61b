package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mvCmd = &cobra.Command{
	Use:   "mv <old-name> <new-name>",
	Short: "Rename a file in the store",
	Long: `Rename a file. The file keeps its data and capacity charge.

Fails if either name is currently open, or if the target name exists.

Examples:
  bytevault mv backup.tar backup-2026-08.tar`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

func runMv(cmd *cobra.Command, args []string) error {
	_, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	if err := reg.Rename(context.Background(), args[0], args[1]); err != nil {
		return fmt.Errorf("failed to rename %q: %w", args[0], err)
	}

	fmt.Printf("Renamed %s to %s\n", args[0], args[1])
	return nil
}
