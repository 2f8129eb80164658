package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	// Change to temp dir so no config.yaml is found
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "nldnorm.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "CT", cfg.Norm.Model)
	assert.InDelta(t, 0.1, cfg.Norm.Resolution, 0.001)
	assert.Equal(t, "EB05", cfg.Spincut.Model)
	assert.InDelta(t, 0.01, cfg.Solver.Bounds.A.Lo, 0.001)
	assert.InDelta(t, 100, cfg.Solver.Bounds.A.Hi, 0.001)
	assert.InDelta(t, -5, cfg.Solver.Bounds.Alpha.Lo, 0.001)
	assert.InDelta(t, 5, cfg.Solver.Bounds.Alpha.Hi, 0.001)
	assert.InDelta(t, 0.05, cfg.Solver.Bounds.T.Lo, 0.001)
	assert.InDelta(t, 2, cfg.Solver.Bounds.T.Hi, 0.001)
	assert.InDelta(t, 0.1, cfg.Solver.Bounds.D0.Lo, 0.001)
	assert.InDelta(t, 100, cfg.Solver.Bounds.D0.Hi, 0.001)
	assert.Equal(t, 2000, cfg.Solver.Samples)
	assert.Equal(t, 1000, cfg.Solver.BurnIn)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/nldnorm
log:
  level: debug
  format: console
anchor:
  d0: 2.2
  sn: 7.658
  j_target: 2.5
spincut:
  model: const
  params:
    sigma: 5.5
norm:
  window:
    e1_low: 0.2
    e2_low: 1.2
    e1_high: 3.0
    e2_high: 5.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/nldnorm", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 2.2, cfg.Anchor.D0, 0.001)
	assert.InDelta(t, 7.658, cfg.Anchor.Sn, 0.001)
	assert.InDelta(t, 2.5, cfg.Anchor.Jtarget, 0.001)
	assert.Equal(t, "const", cfg.Spincut.Model)
	assert.InDelta(t, 5.5, cfg.Spincut.Params.Sigma, 0.001)
	assert.InDelta(t, 0.2, cfg.Norm.Window.E1Low, 0.001)
	assert.InDelta(t, 5.0, cfg.Norm.Window.E2High, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, "CT", cfg.Norm.Model)
	assert.Equal(t, 2000, cfg.Solver.Samples)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: sqlite
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("NLDNORM_STORE_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
}

func TestBoundsSlice(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	bounds := cfg.Solver.Bounds.Slice()
	require.Len(t, bounds, 4)
	assert.InDelta(t, 0.01, bounds[0].Lo, 0.001)
	assert.InDelta(t, -5, bounds[1].Lo, 0.001)
	assert.InDelta(t, 0.05, bounds[2].Lo, 0.001)
	assert.InDelta(t, 0.1, bounds[3].Lo, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
