package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytevault/bytevault/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
  output: stdout
store:
  path: /tmp/bytevault-test
  capacity: 10Gi
api:
  enabled: true
  host: 0.0.0.0
  port: 9090
metrics:
  enabled: true
shutdown_timeout: 15s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/bytevault-test", cfg.Store.Path)
	assert.Equal(t, 10*bytesize.GiB, cfg.Store.Capacity)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_PlainNumberCapacity(t *testing.T) {
	path := writeConfig(t, `
store:
  path: /tmp/bytevault-test
  capacity: 1048576
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, bytesize.MiB, cfg.Store.Capacity)
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "LOUD"

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "oneof"), "got: %v", err)
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	assert.Error(t, Validate(cfg))
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.API.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "max"), "got: %v", err)
}

func TestSaveAndReload(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Path = "/tmp/bytevault-roundtrip"
	cfg.Store.Capacity = 2 * bytesize.GiB

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store.Path, loaded.Store.Path)
	assert.Equal(t, cfg.Store.Capacity, loaded.Store.Capacity)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: info
store:
  path: /tmp/bytevault-test
`)

	t.Setenv("BYTEVAULT_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}
