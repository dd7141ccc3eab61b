package config

import (
	"strings"
	"time"
)

// Default values for unspecified configuration fields.
const (
	DefaultStorePath       = "/var/lib/bytevault"
	DefaultAPIHost         = "127.0.0.1"
	DefaultAPIPort         = 8718
	DefaultShutdownTimeout = 30 * time.Second
)

// ApplyDefaults fills in any missing values with sensible defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	if cfg.API.Host == "" {
		cfg.API.Host = DefaultAPIHost
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = DefaultAPIPort
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// GetDefaultConfig returns a fully defaulted configuration.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
