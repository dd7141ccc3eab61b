package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_CreatesFileAtDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := InitConfig(false)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfigPath(), configPath)
	assert.True(t, DefaultConfigExists())

	// The scaffold must load cleanly.
	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.Zero(t, cfg.Store.Capacity.Uint64())
	assert.False(t, cfg.API.Enabled)
}

func TestInitConfig_RefusesOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := InitConfig(false)
	require.NoError(t, err)

	_, err = InitConfig(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// --force overwrites.
	_, err = InitConfig(true)
	require.NoError(t, err)
}

func TestInitConfigToPath_CustomLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, InitConfigToPath(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestMustLoad_MissingExplicitPath(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
