// Package commands implements the bytevault CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bytevault/bytevault/internal/logger"
	"github.com/bytevault/bytevault/pkg/config"
	"github.com/bytevault/bytevault/pkg/metrics"
	"github.com/bytevault/bytevault/pkg/registry"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bytevault",
	Short: "bytevault - fixed-capacity local byte store",
	Long: `bytevault is a local byte store with named files, a fixed capacity
budget and safe concurrent handle lifecycle semantics. File metadata is
kept in an embedded badger database; file bytes live in flat data files
under the store root.

Use "bytevault [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/bytevault/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(logsCmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// initLogger initializes the structured logger from configuration.
func initLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openStore loads configuration, initializes logging and metrics, and
// opens the store registry. Shared by every command that touches the
// store.
func openStore() (*config.Config, *registry.Registry, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, nil, err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	reg, err := registry.New(registry.Config{
		Path:     cfg.Store.Path,
		Capacity: cfg.Store.Capacity.Uint64(),
		Metrics:  metrics.NewHandleMetrics(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.RegisterCapacityMetrics(reg.Ledger())
	}

	return cfg, reg, nil
}
