package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/tether-deorbit-sim/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBatchJSONReport(t *testing.T) {
	stdout, _, err := execute(t, "batch", "--ticks", "600", "--seed", "3", "--json")
	require.NoError(t, err)

	var report batchReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, uint64(600), report.Ticks)
	assert.Equal(t, uint64(3), report.Seed)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, config.Default().Simulation.Population,
		report.Orbiting+report.Slowed+report.Falling+report.Inactive)
	assert.GreaterOrEqual(t, report.Respawned, uint64(1), "every entity crosses the field within 600 ticks unless captured")
}

func TestBatchIsDeterministicPerSeed(t *testing.T) {
	first, _, err := execute(t, "batch", "--ticks", "3000", "--seed", "11", "--json")
	require.NoError(t, err)
	second, _, err := execute(t, "batch", "--ticks", "3000", "--seed", "11", "--json")
	require.NoError(t, err)

	var a, b batchReport
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	a.RunID, b.RunID = "", ""
	assert.Equal(t, a, b)
}

func TestBatchTextReport(t *testing.T) {
	stdout, _, err := execute(t, "batch", "--ticks", "10", "--population", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "ticks=10 "), stdout)
}

func TestBatchRejectsNonPositiveTicks(t *testing.T) {
	_, _, err := execute(t, "batch", "--ticks", "0")
	require.Error(t, err)
}

func TestRunHeadlessStopsAtMaxTicks(t *testing.T) {
	_, stderr, err := execute(t, "run",
		"--renderer", "headless",
		"--accelerated",
		"--max-ticks", "200",
		"--probe-motion", "static",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "simulation stopped")
	assert.Contains(t, stderr, "run_id=")
}

func TestRunRejectsUnknownRenderer(t *testing.T) {
	_, _, err := execute(t, "run", "--renderer", "hologram")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  population: 30\n  seed: 5\n"), 0o600))

	stdout, _, err := execute(t, "batch", "--config", path, "--seed", "9", "--ticks", "1", "--json")
	require.NoError(t, err)

	var report batchReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, uint64(9), report.Seed)
	assert.Equal(t, 30, report.Orbiting+report.Slowed+report.Falling+report.Inactive)
}
