package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `DataDir = "./data"
Backend = "bolt"
Environment = "staging"
SweepIntervalSeconds = 15
MetricsAddress = ":9191"
DepositPerByte = 2
LogPath = "./logs/sweeperd.log"
LogMaxSizeMB = 10
PausedModules = ["membership"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, BackendBolt, cfg.Backend)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, int64(15), cfg.SweepIntervalSeconds)
	require.Equal(t, ":9191", cfg.MetricsAddress)
	require.Equal(t, uint64(2), cfg.DepositPerByte)
	require.Equal(t, "./logs/sweeperd.log", cfg.LogPath)
	require.Equal(t, 10, cfg.LogMaxSizeMB)
	require.Equal(t, []string{"membership"}, cfg.PausedModules)
	// Unset values still receive defaults.
	require.Equal(t, 3, cfg.LogMaxBackups)
	require.Equal(t, 28, cfg.LogMaxAgeDays)
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, BackendLevelDB, cfg.Backend)
	require.Equal(t, int64(60), cfg.SweepIntervalSeconds)
	require.Equal(t, uint64(1), cfg.DepositPerByte)
	require.FileExists(t, path)

	// Reloading the written file round trips the defaults.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`Backend = "redis"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown storage backend")
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`SweepIntervalSeconds = -5`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SweepIntervalSeconds")
}
