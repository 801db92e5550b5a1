package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// ErrInvalidConfig is returned (wrapped) by Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Config holds every tunable of the simulation. The defaults describe a
// 1000x900 field with twelve debris and a 180-unit tether.
type Config struct {
	// Population is the number of debris entities.
	// Default: 12
	Population int `yaml:"population"`

	// DXRange and DYRange bound the drift rates sampled at spawn.
	DXRange Range `yaml:"dx_range"`
	DYRange Range `yaml:"dy_range"`

	// SpawnYRange bounds the y coordinate of spawns on the left boundary.
	SpawnYRange Range `yaml:"spawn_y_range"`

	// LeftBoundary is where entities spawn, RightBoundary where orbiting
	// entities leave the field and respawn.
	LeftBoundary  float64 `yaml:"left_boundary"`
	RightBoundary float64 `yaml:"right_boundary"`

	// ProbeStart is the probe's initial position.
	ProbeStart model.Point `yaml:"probe_start"`

	// TetherHalfWidth and TetherLength size the capture zone below the probe.
	TetherHalfWidth float64 `yaml:"tether_half_width"`
	TetherLength    float64 `yaml:"tether_length"`

	// WaveLength is the divisor of the orbital wave y += sin(x / WaveLength).
	WaveLength float64 `yaml:"wave_length"`

	// SlowDecay is subtracted from dy every tick while slowed.
	SlowDecay float64 `yaml:"slow_decay"`
	// FallTriggerDY starts the fall once dy drops below it.
	FallTriggerDY float64 `yaml:"fall_trigger_dy"`
	// FallProbability is the per-tick chance a slowed entity starts falling.
	FallProbability float64 `yaml:"fall_probability"`

	FallInitialSpeed float64 `yaml:"fall_initial_speed"`
	// FallAccel is added to the fall speed every tick. There is no cap.
	FallAccel float64 `yaml:"fall_accel"`

	// SwayAmplitude and SwayWavelength shape the lateral sway while falling:
	// x += SwayAmplitude * sin(y / SwayWavelength).
	SwayAmplitude  float64 `yaml:"sway_amplitude"`
	SwayWavelength float64 `yaml:"sway_wavelength"`

	// CollectionY is the lower threshold a falling entity must cross.
	CollectionY float64 `yaml:"collection_y"`

	// RespawnCollected recycles collected entities as fresh spawns on the
	// following tick. When false they stay hidden for the rest of the run.
	RespawnCollected bool `yaml:"respawn_collected"`

	// TickInterval is the pacing target between ticks.
	// Default: 20ms
	TickInterval time.Duration `yaml:"tick_interval"`

	// MaxTicks stops Run after that many ticks. Zero runs until cancelled.
	MaxTicks uint64 `yaml:"max_ticks"`

	// Seed feeds the default random source.
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the reference scenario.
func DefaultConfig() Config {
	return Config{
		Population:       12,
		DXRange:          Range{Min: 1.8, Max: 2.4},
		DYRange:          Range{Min: -0.15, Max: 0.15},
		SpawnYRange:      Range{Min: -50, Max: 380},
		LeftBoundary:     -520,
		RightBoundary:    520,
		ProbeStart:       model.Point{X: 0, Y: 300},
		TetherHalfWidth:  12,
		TetherLength:     180,
		WaveLength:       100,
		SlowDecay:        0.01,
		FallTriggerDY:    -1.5,
		FallProbability:  0.005,
		FallInitialSpeed: 0.5,
		FallAccel:        0.02,
		SwayAmplitude:    0.5,
		SwayWavelength:   80,
		CollectionY:      -240,
		TickInterval:     20 * time.Millisecond,
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig. Fields whose
// zero value is meaningful (probabilities, probe start, flags, MaxTicks,
// Seed) are left alone.
func (c Config) ApplyDefaults() Config {
	def := DefaultConfig()
	if c.Population == 0 {
		c.Population = def.Population
	}
	if c.DXRange == (Range{}) {
		c.DXRange = def.DXRange
	}
	if c.DYRange == (Range{}) {
		c.DYRange = def.DYRange
	}
	if c.SpawnYRange == (Range{}) {
		c.SpawnYRange = def.SpawnYRange
	}
	if c.LeftBoundary == 0 && c.RightBoundary == 0 {
		c.LeftBoundary = def.LeftBoundary
		c.RightBoundary = def.RightBoundary
	}
	if c.TetherHalfWidth == 0 {
		c.TetherHalfWidth = def.TetherHalfWidth
	}
	if c.TetherLength == 0 {
		c.TetherLength = def.TetherLength
	}
	if c.WaveLength == 0 {
		c.WaveLength = def.WaveLength
	}
	if c.SlowDecay == 0 {
		c.SlowDecay = def.SlowDecay
	}
	if c.FallTriggerDY == 0 {
		c.FallTriggerDY = def.FallTriggerDY
	}
	if c.FallInitialSpeed == 0 {
		c.FallInitialSpeed = def.FallInitialSpeed
	}
	if c.FallAccel == 0 {
		c.FallAccel = def.FallAccel
	}
	if c.SwayWavelength == 0 {
		c.SwayWavelength = def.SwayWavelength
	}
	if c.CollectionY == 0 {
		c.CollectionY = def.CollectionY
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	return c
}

// Validate rejects configurations the kinematics cannot run with.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Population > 0, "population must be positive, got %d", c.Population)
	check(c.DXRange.Min <= c.DXRange.Max, "dx_range min %v > max %v", c.DXRange.Min, c.DXRange.Max)
	check(c.DXRange.Min > 0, "dx_range must be positive, got min %v", c.DXRange.Min)
	check(c.DYRange.Min <= c.DYRange.Max, "dy_range min %v > max %v", c.DYRange.Min, c.DYRange.Max)
	check(c.SpawnYRange.Min <= c.SpawnYRange.Max, "spawn_y_range min %v > max %v", c.SpawnYRange.Min, c.SpawnYRange.Max)
	check(c.LeftBoundary < c.RightBoundary, "left_boundary %v must be left of right_boundary %v", c.LeftBoundary, c.RightBoundary)
	check(c.TetherHalfWidth > 0, "tether_half_width must be positive, got %v", c.TetherHalfWidth)
	check(c.TetherLength > 0, "tether_length must be positive, got %v", c.TetherLength)
	check(c.WaveLength != 0, "wave_length must be non-zero")
	check(c.SwayWavelength != 0, "sway_wavelength must be non-zero")
	check(c.SlowDecay >= 0, "slow_decay must be non-negative, got %v", c.SlowDecay)
	check(c.FallProbability >= 0 && c.FallProbability <= 1, "fall_probability must be in [0,1], got %v", c.FallProbability)
	check(c.FallInitialSpeed >= 0, "fall_initial_speed must be non-negative, got %v", c.FallInitialSpeed)
	check(c.FallAccel >= 0, "fall_accel must be non-negative, got %v", c.FallAccel)
	check(c.TickInterval > 0, "tick_interval must be positive, got %s", c.TickInterval)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
