package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/audio"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/config"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/logging"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/observability"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/render"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/render/terminal"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/render/window"
	"github.com/signalsfoundry/tether-deorbit-sim/timectrl"
)

// session holds what every run mode shares.
type session struct {
	cfg       config.File
	log       logging.Logger
	motion    core.ProbeMotion
	controls  render.Controls
	collector *observability.SimCollector
	closers   []func()
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// newSession sets up logging, tracing and the probe motion model. The
// returned context carries the run ID and logger.
func newSession(ctx context.Context, cfg config.File, stderr io.Writer) (context.Context, *session, error) {
	s := &session{cfg: cfg}

	logOut, closeLog, err := logOutput(cfg, stderr)
	if err != nil {
		return ctx, nil, err
	}
	s.closers = append(s.closers, closeLog)

	logCfg := cfg.Logging
	logCfg.Output = logOut
	ctx, s.log = logging.WithRunLogger(ctx, logging.New(logCfg))
	ctx = logging.ContextWithLogger(ctx, s.log)

	tracingCfg := cfg.Tracing
	tracingCfg.Output = logOut
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, s.log)
	if err != nil {
		s.close()
		return ctx, nil, fmt.Errorf("init tracing: %w", err)
	}
	s.closers = append(s.closers, func() {
		observability.ShutdownWithTimeout(context.WithoutCancel(ctx), shutdownTracing, s.log)
	})

	s.motion, err = core.NewProbeMotion(cfg.Probe)
	if err != nil {
		s.close()
		return ctx, nil, fmt.Errorf("probe motion: %w", err)
	}
	if manual, ok := s.motion.(*core.ManualMotionModel); ok {
		s.controls = render.Controls{Probe: manual}
	}
	return ctx, s, nil
}

// logOutput keeps log records off the screen while the terminal renderer
// owns it.
func logOutput(cfg config.File, stderr io.Writer) (io.Writer, func(), error) {
	if cfg.Render.Kind != config.RendererTerminal {
		return stderr, func() {}, nil
	}
	if cfg.Render.LogFile == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(cfg.Render.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// withChime adds the collection chime when audio is enabled. Audio
// failures only cost the sound.
func (s *session) withChime(ctx context.Context, p core.Presenter) core.Presenter {
	if !s.cfg.Audio.Enabled {
		return p
	}
	sp, err := audio.OpenSpeaker()
	if err != nil {
		s.log.Warn(ctx, "audio unavailable; running silently", logging.Err(err))
		return p
	}
	s.closers = append(s.closers, sp.Close)
	return audio.NewChime(p, sp, s.cfg.Audio.Frequency, s.cfg.Audio.Duration, s.log)
}

// progress logs collections and periodic stats through the run logger.
func (s *session) progress(ctx context.Context) *render.LogPresenter {
	return render.NewLogPresenter(ctx, nil, s.cfg.Render.StatsEvery)
}

func (s *session) newEngine(p core.Presenter, extra ...core.Option) (*core.SimulationEngine, error) {
	opts := []core.Option{
		core.WithProbeMotion(s.motion),
		core.WithPresenter(p),
		core.WithLogger(s.log),
	}
	opts = append(opts, extra...)
	if s.collector != nil {
		opts = append(opts, core.WithMetricsRecorder(s.collector))
	}
	return core.NewSimulationEngine(s.cfg.Simulation, opts...)
}

// newClock paces interactive runs. The engine reads simulation time from
// it, so the TLE track follows the same timeline.
func (s *session) newClock() *timectrl.TimeController {
	mode := timectrl.RealTime
	if s.cfg.Render.Accelerated {
		mode = timectrl.Accelerated
	}
	return timectrl.NewTimeController(time.Now().UTC(), s.cfg.Simulation.TickInterval, mode)
}

// runInteractive drives the engine on the configured surface until the
// user quits, a signal arrives or MaxTicks is reached.
func runInteractive(parent context.Context, cfg config.File, stderr io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, s, err := newSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		s.collector, err = observability.NewSimCollector(nil)
		if err != nil {
			return fmt.Errorf("metrics collector: %w", err)
		}
		srv := serveMetrics(gctx, cfg.Metrics.Addr, s.collector, s.log)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		})
	}

	clock := s.newClock()
	defer clock.Stop()

	switch cfg.Render.Kind {
	case config.RendererTerminal:
		screen, err := terminal.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		r := terminal.New(screen, terminal.WithControls(s.controls), terminal.WithQuit(cancel))
		engine, err := s.newEngine(s.withChime(ctx, render.Fanout{r, s.progress(ctx)}), core.WithClock(clock))
		if err != nil {
			screen.Fini()
			return err
		}
		g.Go(func() error {
			defer cancel()
			return r.Run(gctx)
		})
		g.Go(func() error {
			defer cancel()
			return engine.Run(gctx, clock)
		})
		return g.Wait()

	case config.RendererWindow:
		win := window.New(gctx, window.WithControls(s.controls), window.WithQuit(cancel))
		engine, err := s.newEngine(s.withChime(ctx, render.Fanout{win, s.progress(ctx)}), core.WithClock(clock))
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer cancel()
			return engine.Run(gctx, clock)
		})
		// ebiten needs the main goroutine.
		winErr := win.Run()
		cancel()
		if err := g.Wait(); err != nil {
			return err
		}
		if winErr != nil {
			return fmt.Errorf("window: %w", winErr)
		}
		return nil

	default:
		engine, err := s.newEngine(s.withChime(ctx, s.progress(ctx)), core.WithClock(clock))
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer cancel()
			return engine.Run(gctx, clock)
		})
		return g.Wait()
	}
}

// batchReport is the summary printed by the batch command.
type batchReport struct {
	RunID     string `json:"run_id"`
	Seed      uint64 `json:"seed"`
	Ticks     uint64 `json:"ticks"`
	Collected uint64 `json:"collected"`
	Respawned uint64 `json:"respawned"`
	Captured  uint64 `json:"captured"`
	Falls     uint64 `json:"falls"`
	Orbiting  int    `json:"orbiting"`
	Slowed    int    `json:"slowed"`
	Falling   int    `json:"falling"`
	Inactive  int    `json:"inactive"`
}

// runBatch runs ticks unpaced steps headlessly and writes a report to out.
func runBatch(parent context.Context, cfg config.File, ticks int, asJSON bool, out, stderr io.Writer) error {
	if ticks <= 0 {
		return errors.New("--ticks must be positive")
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Render.Kind = config.RendererHeadless
	ctx, s, err := newSession(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer s.close()

	engine, err := s.newEngine(s.progress(ctx))
	if err != nil {
		return err
	}

	start := time.Now()
	stats := engine.RunTicks(ctx, ticks)
	s.log.Info(ctx, "batch finished",
		logging.Any("ticks", stats.Tick),
		logging.Any("collected", stats.Collected),
		logging.String("elapsed", time.Since(start).String()),
	)

	report := batchReport{
		RunID:     logging.RunIDFromContext(ctx),
		Seed:      cfg.Simulation.Seed,
		Ticks:     stats.Tick,
		Collected: stats.Collected,
		Respawned: stats.Respawned,
		Captured:  stats.Captured,
		Falls:     stats.Falls,
		Orbiting:  stats.Orbiting,
		Slowed:    stats.Slowed,
		Falling:   stats.Falling,
		Inactive:  stats.Inactive,
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintf(out,
		"ticks=%d collected=%d respawned=%d captured=%d falls=%d orbiting=%d slowed=%d falling=%d inactive=%d\n",
		report.Ticks, report.Collected, report.Respawned, report.Captured, report.Falls,
		report.Orbiting, report.Slowed, report.Falling, report.Inactive,
	)
	return err
}

// serveMetrics starts the /metrics listener. Listen failures are logged and
// do not stop the simulation.
func serveMetrics(ctx context.Context, addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server exited", logging.String("addr", addr), logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
