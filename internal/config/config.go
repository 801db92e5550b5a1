// Package config loads the simulator's configuration from a YAML file, an
// optional .env file and SIM_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/logging"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/observability"
)

// Renderer names accepted in RenderConfig.Kind.
const (
	RendererTerminal = "terminal"
	RendererWindow   = "window"
	RendererHeadless = "headless"
)

// File is the on-disk configuration layout.
type File struct {
	Simulation core.Config                 `yaml:"simulation"`
	Probe      core.ProbeMotionSpec        `yaml:"probe"`
	Render     RenderConfig                `yaml:"render"`
	Audio      AudioConfig                 `yaml:"audio"`
	Logging    logging.Config              `yaml:"logging"`
	Metrics    MetricsConfig               `yaml:"metrics"`
	Tracing    observability.TracingConfig `yaml:"tracing"`
}

// RenderConfig selects the presentation surface.
type RenderConfig struct {
	Kind string `yaml:"kind"` // terminal, window or headless

	// Accelerated skips wall-clock pacing between ticks.
	Accelerated bool `yaml:"accelerated"`

	// StatsEvery logs a progress line every N ticks. Zero disables it.
	StatsEvery uint64 `yaml:"stats_every"`

	// LogFile receives log records while a full-screen renderer owns stdout.
	LogFile string `yaml:"log_file"`
}

// AudioConfig controls the collection chime.
type AudioConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Frequency float64       `yaml:"frequency"`
	Duration  time.Duration `yaml:"duration"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Simulation: core.DefaultConfig(),
		Probe:      core.ProbeMotionSpec{Kind: core.ProbeMotionManual},
		Render: RenderConfig{
			Kind:       RendererTerminal,
			StatsEvery: 250,
		},
		Audio: AudioConfig{
			Frequency: 880,
			Duration:  50 * time.Millisecond,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load builds a File from defaults, the YAML file at path (skipped when
// path is empty) and the environment. envFile, when non-empty, is loaded
// into the process environment first; a missing envFile is not an error.
// The file decodes onto Default(), so an explicit zero in it is kept.
func Load(path, envFile string) (File, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("load env file %q: %w", envFile, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return File{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return File{}, err
	}

	cfg.Logging = logging.ConfigFromEnv(cfg.Logging)
	cfg.Tracing = observability.TracingConfigFromEnv(cfg.Tracing)

	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks the parts of the file the simulation core does not own.
func (f File) Validate() error {
	if err := f.Simulation.Validate(); err != nil {
		return err
	}
	switch f.Render.Kind {
	case RendererTerminal, RendererWindow, RendererHeadless:
	default:
		return fmt.Errorf("unknown renderer %q", f.Render.Kind)
	}
	if f.Audio.Enabled && (f.Audio.Frequency <= 0 || f.Audio.Duration <= 0) {
		return fmt.Errorf("audio needs a positive frequency and duration, got %v Hz for %s", f.Audio.Frequency, f.Audio.Duration)
	}
	return nil
}

// applyEnv overlays SIM_* variables. Each variable maps to one field.
func applyEnv(cfg *File) error {
	var errs []error

	setInt := func(key string, dst *int) {
		if raw, ok := os.LookupEnv(key); ok {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	setUint := func(key string, dst *uint64) {
		if raw, ok := os.LookupEnv(key); ok {
			v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) {
		if raw, ok := os.LookupEnv(key); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if raw, ok := os.LookupEnv(key); ok {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if raw, ok := os.LookupEnv(key); ok {
			v, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = v
		}
	}
	setString := func(key string, dst *string) {
		if raw, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(raw)
		}
	}

	sim := &cfg.Simulation
	setInt("SIM_POPULATION", &sim.Population)
	setUint("SIM_SEED", &sim.Seed)
	setUint("SIM_MAX_TICKS", &sim.MaxTicks)
	setDuration("SIM_TICK_INTERVAL", &sim.TickInterval)
	setFloat("SIM_TETHER_HALF_WIDTH", &sim.TetherHalfWidth)
	setFloat("SIM_TETHER_LENGTH", &sim.TetherLength)
	setFloat("SIM_COLLECTION_Y", &sim.CollectionY)
	setFloat("SIM_FALL_PROBABILITY", &sim.FallProbability)
	setFloat("SIM_FALL_ACCEL", &sim.FallAccel)
	setFloat("SIM_FALL_INITIAL_SPEED", &sim.FallInitialSpeed)
	setFloat("SIM_FALL_TRIGGER_DY", &sim.FallTriggerDY)
	setBool("SIM_RESPAWN_COLLECTED", &sim.RespawnCollected)

	setString("SIM_PROBE_MOTION", &cfg.Probe.Kind)
	setString("SIM_RENDERER", &cfg.Render.Kind)
	setBool("SIM_ACCELERATED", &cfg.Render.Accelerated)
	setString("SIM_LOG_FILE", &cfg.Render.LogFile)
	setBool("SIM_AUDIO_ENABLED", &cfg.Audio.Enabled)
	setString("SIM_METRICS_ADDR", &cfg.Metrics.Addr)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}
