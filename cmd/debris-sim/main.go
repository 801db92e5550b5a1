// Command debris-sim runs the tether probe deorbit simulation.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/tether-deorbit-sim/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds flag values. Only flags the user set override the loaded
// configuration.
type options struct {
	configPath string
	envFile    string

	seed             uint64
	population       int
	probeMotion      string
	respawnCollected bool
	logLevel         string
	logFormat        string

	renderer    string
	metricsAddr string
	sound       bool
	accelerated bool
	maxTicks    uint64

	ticks      int
	jsonOutput bool
	statsEvery uint64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "debris-sim",
		Short: "Tether probe deorbit simulation",
		Long: `debris-sim simulates a probe trailing a vertical tether through a band of
orbiting debris. Debris crossing the tether are slowed, eventually fall and
are collected below the Earth's horizon.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with SIM_* overrides (ignored when missing)")
	pf.Uint64Var(&opts.seed, "seed", 0, "random seed for spawn positions and fall rolls")
	pf.IntVar(&opts.population, "population", 0, "number of debris entities")
	pf.StringVar(&opts.probeMotion, "probe-motion", "", "probe motion: static, manual or tle")
	pf.BoolVar(&opts.respawnCollected, "respawn-collected", false, "recycle collected debris as fresh spawns")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(newRunCmd(opts), newBatchCmd(opts))
	return root
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation interactively, paced by the tick interval",
		Example: `  debris-sim run
  debris-sim run --renderer window --sound
  debris-sim run --renderer headless --accelerated --max-ticks 5000 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runInteractive(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.renderer, "renderer", "r", "", "presentation surface: terminal, window or headless")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&opts.sound, "sound", false, "play a chime on every collection")
	f.BoolVar(&opts.accelerated, "accelerated", false, "do not pace ticks to wall-clock time")
	f.Uint64Var(&opts.maxTicks, "max-ticks", 0, "stop after this many ticks (0 runs until interrupted)")
	return cmd
}

func newBatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a bounded number of ticks without pacing and print the final stats",
		Example: `  debris-sim batch --ticks 20000 --seed 42
  debris-sim batch --ticks 5000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("stats-every") {
				cfg.Render.StatsEvery = opts.statsEvery
			}
			return runBatch(cmd.Context(), cfg, opts.ticks, opts.jsonOutput, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.ticks, "ticks", "n", 10000, "number of ticks to run")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	f.Uint64Var(&opts.statsEvery, "stats-every", 0, "log a progress line every N ticks (0 disables)")
	return cmd
}

// load reads the configuration and applies explicitly set flags on top.
func (o *options) load(cmd *cobra.Command) (config.File, error) {
	cfg, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return config.File{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("seed") {
		cfg.Simulation.Seed = o.seed
	}
	if fs.Changed("population") {
		cfg.Simulation.Population = o.population
	}
	if fs.Changed("probe-motion") {
		cfg.Probe.Kind = o.probeMotion
	}
	if fs.Changed("respawn-collected") {
		cfg.Simulation.RespawnCollected = o.respawnCollected
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = o.logFormat
	}
	if fs.Changed("renderer") {
		cfg.Render.Kind = o.renderer
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if fs.Changed("sound") {
		cfg.Audio.Enabled = o.sound
	}
	if fs.Changed("accelerated") {
		cfg.Render.Accelerated = o.accelerated
	}
	if fs.Changed("max-ticks") {
		cfg.Simulation.MaxTicks = o.maxTicks
	}

	if err := cfg.Validate(); err != nil {
		return config.File{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

const shutdownTimeout = 5 * time.Second
