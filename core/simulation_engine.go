package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/tether-deorbit-sim/internal/logging"
	"github.com/signalsfoundry/tether-deorbit-sim/model"
	"github.com/signalsfoundry/tether-deorbit-sim/timectrl"
)

const tracerName = "github.com/signalsfoundry/tether-deorbit-sim/core"

// TickSource paces the run loop. Wait blocks until the next tick boundary
// or until ctx is done.
type TickSource interface {
	Wait(ctx context.Context) error
}

// Stats summarises the run so far.
type Stats struct {
	Tick      uint64
	Collected uint64
	Respawned uint64
	Captured  uint64
	Falls     uint64

	Orbiting int
	Slowed   int
	Falling  int
	Inactive int
}

// TickDelta counts the outcomes of a single tick.
type TickDelta struct {
	Collected int
	Respawned int
	Captured  int
	Falls     int
}

// MetricsRecorder receives per-tick measurements.
type MetricsRecorder interface {
	RecordTick(elapsed time.Duration, delta TickDelta, stats Stats)
}

// SimulationEngine owns the probe, the debris population and the collected
// counter, and advances them one tick at a time. It is not safe for
// concurrent use: a single goroutine drives it.
type SimulationEngine struct {
	cfg       Config
	rng       Rand
	spawner   *Spawner
	kin       *Kinematics
	motion    ProbeMotion
	presenter Presenter
	metrics   MetricsRecorder
	log       logging.Logger
	tracer    trace.Tracer
	clock     timectrl.SimClock
	start     time.Time

	probe  model.Point
	zone   CaptureZone
	debris []*model.Debris
	stats  Stats

	tickListeners []func(Stats)
}

// Option customises SimulationEngine construction.
type Option func(*SimulationEngine)

// WithRand injects the random source. Defaults to NewRand(cfg.Seed).
func WithRand(r Rand) Option {
	return func(se *SimulationEngine) {
		se.rng = r
	}
}

// WithProbeMotion sets how the probe moves. Defaults to static.
func WithProbeMotion(m ProbeMotion) Option {
	return func(se *SimulationEngine) {
		se.motion = m
	}
}

// WithPresenter attaches the drawing surface refreshed after every tick.
func WithPresenter(p Presenter) Option {
	return func(se *SimulationEngine) {
		se.presenter = p
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(se *SimulationEngine) {
		se.metrics = m
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(se *SimulationEngine) {
		se.log = l
	}
}

// WithTracer overrides the tracer; the global provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(se *SimulationEngine) {
		se.tracer = t
	}
}

// WithStartTime sets the simulation time of tick zero.
func WithStartTime(t time.Time) Option {
	return func(se *SimulationEngine) {
		se.start = t
	}
}

// WithClock takes simulation time from c instead of counting ticks from
// the start time. Pass the TickSource that paces Run so both agree.
func WithClock(c timectrl.SimClock) Option {
	return func(se *SimulationEngine) {
		se.clock = c
	}
}

// NewSimulationEngine validates cfg and spawns the initial population.
func NewSimulationEngine(cfg Config, opts ...Option) (*SimulationEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	se := &SimulationEngine{cfg: cfg}
	for _, opt := range opts {
		opt(se)
	}
	if se.rng == nil {
		se.rng = NewRand(cfg.Seed)
	}
	if se.motion == nil {
		se.motion = &StaticMotionModel{}
	}
	if se.presenter == nil {
		se.presenter = noopPresenter{}
	}
	if se.log == nil {
		se.log = logging.Noop()
	}
	if se.tracer == nil {
		se.tracer = otel.Tracer(tracerName)
	}
	if se.start.IsZero() {
		se.start = time.Now().UTC()
	}

	se.spawner = NewSpawner(cfg, se.rng)
	se.kin = NewKinematics(cfg, se.rng, se.spawner)
	se.probe = cfg.ProbeStart
	se.zone = ComputeZone(se.probe, cfg.TetherHalfWidth, cfg.TetherLength)
	se.debris = se.spawner.Population()
	se.countStates()

	return se, nil
}

// RegisterTickListener registers a callback invoked after every tick.
func (se *SimulationEngine) RegisterTickListener(fn func(Stats)) {
	se.tickListeners = append(se.tickListeners, fn)
}

// Config returns the configuration the engine runs with.
func (se *SimulationEngine) Config() Config { return se.cfg }

// Stats returns the current run statistics.
func (se *SimulationEngine) Stats() Stats { return se.stats }

// Debris returns the live entities, in index order. Callers must treat
// them as read-only.
func (se *SimulationEngine) Debris() []*model.Debris { return se.debris }

// Probe returns the probe's current position.
func (se *SimulationEngine) Probe() model.Point { return se.probe }

// SimTime returns the simulation time of the current tick.
func (se *SimulationEngine) SimTime() time.Time {
	if se.clock != nil {
		return se.clock.Now()
	}
	return se.start.Add(time.Duration(se.stats.Tick) * se.cfg.TickInterval)
}

// Snapshot returns a frame describing the current state.
func (se *SimulationEngine) Snapshot() Frame {
	start, end := se.zone.TetherEnds()
	views := make([]DebrisView, len(se.debris))
	for i, d := range se.debris {
		views[i] = DebrisView{ID: d.ID, Pos: d.Pos, State: d.State}
	}
	return Frame{
		Tick:        se.stats.Tick,
		Probe:       se.probe,
		TetherStart: start,
		TetherEnd:   end,
		Debris:      views,
		Collected:   se.stats.Collected,
	}
}

// Step advances the whole simulation by one tick: probe, capture zone,
// every entity in index order, then metrics, listeners and the presenter.
func (se *SimulationEngine) Step(ctx context.Context) Stats {
	began := time.Now()
	// Tick spans are roots linked to the run span so the sampler decides
	// per tick rather than once per run.
	ctx, span := se.tracer.Start(ctx, "simulation.tick",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(ctx)),
	)
	defer span.End()

	se.stats.Tick++
	simTime := se.SimTime()

	se.motion.UpdateProbe(simTime, &se.probe)
	se.zone = ComputeZone(se.probe, se.cfg.TetherHalfWidth, se.cfg.TetherLength)

	var delta TickDelta
	for _, d := range se.debris {
		if d.State == model.StateCollected {
			if se.cfg.RespawnCollected {
				se.spawner.Spawn(d)
				delta.Respawned++
			}
			continue
		}

		outcome := se.kin.Step(d, se.zone)
		if outcome.Has(OutcomeCaptured) {
			delta.Captured++
			se.log.Debug(ctx, "debris captured by tether", logging.Int("debris_id", d.ID), logging.Any("tick", se.stats.Tick))
		}
		if outcome.Has(OutcomeFalling) {
			delta.Falls++
			se.log.Debug(ctx, "debris falling", logging.Int("debris_id", d.ID), logging.Any("tick", se.stats.Tick))
		}
		if outcome.Has(OutcomeCollected) {
			delta.Collected++
			se.log.Debug(ctx, "debris collected", logging.Int("debris_id", d.ID), logging.Any("tick", se.stats.Tick))
		}
		if outcome.Has(OutcomeRespawned) {
			delta.Respawned++
		}
	}

	se.stats.Collected += uint64(delta.Collected)
	se.stats.Respawned += uint64(delta.Respawned)
	se.stats.Captured += uint64(delta.Captured)
	se.stats.Falls += uint64(delta.Falls)
	se.countStates()

	span.SetAttributes(
		attribute.Int64("sim.tick", int64(se.stats.Tick)),
		attribute.Int64("sim.collected", int64(se.stats.Collected)),
		attribute.Int("sim.collected_delta", delta.Collected),
	)

	if se.metrics != nil {
		se.metrics.RecordTick(time.Since(began), delta, se.stats)
	}
	for _, fn := range se.tickListeners {
		fn(se.stats)
	}
	se.presenter.Refresh(se.Snapshot())

	return se.stats
}

// RunTicks advances exactly n ticks without pacing, stopping early if ctx
// is cancelled.
func (se *SimulationEngine) RunTicks(ctx context.Context, n int) Stats {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		se.Step(ctx)
	}
	return se.stats
}

// Run steps the simulation at the pace of ticks until ctx is cancelled or
// Config.MaxTicks ticks have run. Cancellation is a clean stop and returns
// nil.
func (se *SimulationEngine) Run(ctx context.Context, ticks TickSource) error {
	ctx, span := se.tracer.Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.Int("sim.population", se.cfg.Population),
		attribute.String("sim.tick_interval", se.cfg.TickInterval.String()),
	))
	defer span.End()

	se.log.Info(ctx, "simulation started",
		logging.Int("population", se.cfg.Population),
		logging.String("tick_interval", se.cfg.TickInterval.String()),
		logging.Any("max_ticks", se.cfg.MaxTicks),
	)

	for {
		if ctx.Err() != nil {
			break
		}
		if se.cfg.MaxTicks > 0 && se.stats.Tick >= se.cfg.MaxTicks {
			break
		}

		se.Step(ctx)

		if err := ticks.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			span.RecordError(err)
			return fmt.Errorf("wait for tick %d: %w", se.stats.Tick+1, err)
		}
	}

	span.SetAttributes(attribute.Int64("sim.ticks", int64(se.stats.Tick)))
	se.log.Info(context.WithoutCancel(ctx), "simulation stopped",
		logging.Any("ticks", se.stats.Tick),
		logging.Any("collected", se.stats.Collected),
		logging.Any("respawned", se.stats.Respawned),
	)
	return nil
}

func (se *SimulationEngine) countStates() {
	se.stats.Orbiting, se.stats.Slowed, se.stats.Falling, se.stats.Inactive = 0, 0, 0, 0
	for _, d := range se.debris {
		switch d.State {
		case model.StateOrbiting:
			se.stats.Orbiting++
		case model.StateSlowed:
			se.stats.Slowed++
		case model.StateFalling:
			se.stats.Falling++
		case model.StateCollected:
			se.stats.Inactive++
		}
	}
}
