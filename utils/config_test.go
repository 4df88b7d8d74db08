package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/herald/types"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg := &types.Config{}
	require.NoError(t, ReadConfig(cfg, ""))

	assert.Equal(t, "info", cfg.Logging.OutputLevel)
	assert.Equal(t, 0, cfg.Verify.Concurrency)
	assert.Equal(t, "keccak", cfg.Verify.HashingFunction)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Metrics.Host)
	assert.Equal(t, "9090", cfg.Metrics.Port)
}

func TestReadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  outputLevel: "debug"
verify:
  concurrency: 4
  hashingFunction: "poseidon"
`), 0o644))

	cfg := &types.Config{}
	require.NoError(t, ReadConfig(cfg, path))

	assert.Equal(t, "debug", cfg.Logging.OutputLevel)
	assert.Equal(t, 4, cfg.Verify.Concurrency)
	assert.Equal(t, "poseidon", cfg.Verify.HashingFunction)
	// Untouched sections keep their defaults.
	assert.Equal(t, "9090", cfg.Metrics.Port)
}

func TestReadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HERALD_VERIFY_CONCURRENCY", "8")
	t.Setenv("HERALD_METRICS_ENABLED", "true")

	cfg := &types.Config{}
	require.NoError(t, ReadConfig(cfg, ""))

	assert.Equal(t, 8, cfg.Verify.Concurrency)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestReadConfigMissingFile(t *testing.T) {
	cfg := &types.Config{}
	assert.Error(t, ReadConfig(cfg, filepath.Join(t.TempDir(), "missing.yml")))
}
