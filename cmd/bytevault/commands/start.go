package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bytevault/bytevault/internal/logger"
	"github.com/bytevault/bytevault/pkg/api"
	"github.com/bytevault/bytevault/pkg/config"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bytevault server",
	Long: `Start the bytevault server with the specified configuration.

The server opens the store and, when enabled, serves the HTTP status
surface (/health, /stats, /metrics). It runs in the foreground until
interrupted.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/bytevault/config.yaml.

Examples:
  # Start with default config location
  bytevault start

  # Start with custom config file
  bytevault start --config /etc/bytevault/config.yaml

  # Start with environment variable overrides
  BYTEVAULT_LOGGING_LEVEL=DEBUG bytevault start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, reg, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Error("store close error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Store opened",
		logger.KeyStore, cfg.Store.Path,
		logger.KeyCapacity, cfg.Store.Capacity.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	if cfg.API.Enabled {
		apiServer := api.NewServer(api.APIConfig{
			Host: cfg.API.Host,
			Port: cfg.API.Port,
		}, reg)
		go func() {
			serverDone <- apiServer.Start(ctx)
		}()
	} else {
		logger.Info("status server disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if cfg.API.Enabled {
			if err := <-serverDone; err != nil {
				logger.Error("status server shutdown error", logger.KeyError, err)
				return err
			}
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
