package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration scaffold written by
// `bytevault init`. Kept as a literal so the generated file documents
// every section instead of dumping bare defaults.
const sampleConfig = `# bytevault configuration
#
# Every option can be overridden with an environment variable:
#   BYTEVAULT_<SECTION>_<KEY>, e.g. BYTEVAULT_LOGGING_LEVEL=DEBUG

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Output format: text (colored when attached to a terminal) or json
  format: text
  # Destination: stdout, stderr, or a file path
  output: stderr

store:
  # Root directory for the store. Metadata and file data live under it.
  path: /var/lib/bytevault
  # Fixed store capacity. Accepts human-readable sizes ("10Gi", "500MB")
  # or a plain byte count. 0 means unlimited.
  capacity: 0

api:
  # Serve /health, /stats and /metrics over HTTP.
  enabled: false
  host: 127.0.0.1
  port: 8718

metrics:
  # Collect and expose Prometheus metrics (requires api.enabled).
  enabled: false

# Maximum time to wait for open handles to settle on shutdown.
shutdown_timeout: 30s
`

// InitConfig creates a sample configuration file at the default location.
// Returns the path the file was written to.
//
// Fails if the file already exists unless force is true.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath creates a sample configuration file at the given path,
// creating parent directories as needed.
//
// Fails if the file already exists unless force is true.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// MustLoad resolves the config path, requires the file to exist, and
// loads it. Used by CLI commands that need a working configuration.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  bytevault init\n\n"+
				"Or specify a custom config file:\n"+
				"  bytevault <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  bytevault init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}
