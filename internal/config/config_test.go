package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, core.DefaultConfig(), cfg.Simulation)
	assert.Equal(t, RendererTerminal, cfg.Render.Kind)
	assert.Equal(t, core.ProbeMotionManual, cfg.Probe.Kind)
	assert.False(t, cfg.Audio.Enabled)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "sim.yaml", `
simulation:
  population: 40
  seed: 7
  tick_interval: 5ms
  respawn_collected: true
  probe_start: {x: 25, y: 310}
  dx_range: {min: 1.0, max: 1.5}
probe:
  kind: static
render:
  kind: headless
  accelerated: true
metrics:
  addr: ":9105"
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Simulation.Population)
	assert.Equal(t, uint64(7), cfg.Simulation.Seed)
	assert.Equal(t, 5*time.Millisecond, cfg.Simulation.TickInterval)
	assert.True(t, cfg.Simulation.RespawnCollected)
	assert.Equal(t, 25.0, cfg.Simulation.ProbeStart.X)
	assert.Equal(t, 310.0, cfg.Simulation.ProbeStart.Y)
	assert.Equal(t, core.Range{Min: 1.0, Max: 1.5}, cfg.Simulation.DXRange)
	// Untouched fields keep their defaults.
	assert.Equal(t, core.DefaultConfig().TetherLength, cfg.Simulation.TetherLength)

	assert.Equal(t, core.ProbeMotionStatic, cfg.Probe.Kind)
	assert.Equal(t, RendererHeadless, cfg.Render.Kind)
	assert.True(t, cfg.Render.Accelerated)
	assert.Equal(t, ":9105", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := writeFile(t, "zeros.yaml", `
simulation:
  collection_y: 0
  slow_decay: 0
  fall_trigger_dy: 0
  fall_accel: 0
  fall_initial_speed: 0
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Zero(t, cfg.Simulation.CollectionY)
	assert.Zero(t, cfg.Simulation.SlowDecay)
	assert.Zero(t, cfg.Simulation.FallTriggerDY)
	assert.Zero(t, cfg.Simulation.FallAccel)
	assert.Zero(t, cfg.Simulation.FallInitialSpeed)
	assert.Equal(t, core.DefaultConfig().TetherHalfWidth, cfg.Simulation.TetherHalfWidth)
}

func TestLoadEnvZeroOverridesDefault(t *testing.T) {
	t.Setenv("SIM_COLLECTION_Y", "0")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Zero(t, cfg.Simulation.CollectionY)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "sim.yaml", "simulation:\n  population: 40\n")
	t.Setenv("SIM_POPULATION", "9")
	t.Setenv("SIM_RENDERER", "headless")
	t.Setenv("SIM_TICK_INTERVAL", "1ms")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Simulation.Population)
	assert.Equal(t, RendererHeadless, cfg.Render.Kind)
	assert.Equal(t, time.Millisecond, cfg.Simulation.TickInterval)
}

func TestLoadDotEnvFile(t *testing.T) {
	// godotenv never overrides variables already set, so register cleanup
	// for the keys it is about to set.
	t.Setenv("SIM_SEED", "")
	os.Unsetenv("SIM_SEED")
	t.Setenv("SIM_METRICS_ADDR", "")
	os.Unsetenv("SIM_METRICS_ADDR")

	envFile := writeFile(t, ".env", "SIM_SEED=1234\nSIM_METRICS_ADDR=127.0.0.1:9200\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), cfg.Simulation.Seed)
	assert.Equal(t, "127.0.0.1:9200", cfg.Metrics.Addr)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "simulation: [unclosed\n")
		_, err := Load(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("invalid simulation", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "simulation:\n  fall_probability: 2\n")
		_, err := Load(path, "")
		require.ErrorIs(t, err, core.ErrInvalidConfig)
	})

	t.Run("unknown renderer", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "render:\n  kind: hologram\n")
		_, err := Load(path, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hologram")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("SIM_POPULATION", "many")
		_, err := Load("", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SIM_POPULATION")
	})
}

func TestValidateAudio(t *testing.T) {
	cfg := Default()
	cfg.Audio.Enabled = true
	cfg.Audio.Duration = 0
	require.Error(t, cfg.Validate())

	cfg.Audio.Duration = 10 * time.Millisecond
	require.NoError(t, cfg.Validate())
}
