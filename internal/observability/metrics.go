package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
)

// SimCollector bundles Prometheus metrics for the simulation loop. It
// satisfies core.MetricsRecorder.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram

	Collected prometheus.Counter
	Respawned prometheus.Counter
	Captured  prometheus.Counter
	Falls     prometheus.Counter

	Entities *prometheus.GaugeVec
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Total number of simulation ticks executed.",
	}), "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent computing one tick, excluding pacing.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02, 0.05},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	collected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debris_collected_total",
		Help: "Debris entities that fell below the collection threshold.",
	}), "debris_collected_total")
	if err != nil {
		return nil, err
	}

	respawned, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debris_respawned_total",
		Help: "Debris entities respawned on the left boundary.",
	}), "debris_respawned_total")
	if err != nil {
		return nil, err
	}

	captured, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debris_captured_total",
		Help: "Debris entities slowed by the tether's capture zone.",
	}), "debris_captured_total")
	if err != nil {
		return nil, err
	}

	falls, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debris_falls_total",
		Help: "Slowed debris entities that started falling.",
	}), "debris_falls_total")
	if err != nil {
		return nil, err
	}

	entities, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "debris_entities",
		Help: "Current number of debris entities, labeled by lifecycle state.",
	}, []string{"state"}), "debris_entities")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:     gatherer,
		Ticks:        ticks,
		TickDuration: tickDuration,
		Collected:    collected,
		Respawned:    respawned,
		Captured:     captured,
		Falls:        falls,
		Entities:     entities,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordTick satisfies core.MetricsRecorder.
func (c *SimCollector) RecordTick(elapsed time.Duration, delta core.TickDelta, stats core.Stats) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDuration != nil {
		c.TickDuration.Observe(elapsed.Seconds())
	}
	addCount(c.Collected, delta.Collected)
	addCount(c.Respawned, delta.Respawned)
	addCount(c.Captured, delta.Captured)
	addCount(c.Falls, delta.Falls)

	if c.Entities != nil {
		c.Entities.WithLabelValues("orbiting").Set(float64(stats.Orbiting))
		c.Entities.WithLabelValues("slowed").Set(float64(stats.Slowed))
		c.Entities.WithLabelValues("falling").Set(float64(stats.Falling))
		c.Entities.WithLabelValues("collected").Set(float64(stats.Inactive))
	}
}

func addCount(counter prometheus.Counter, n int) {
	if counter == nil || n <= 0 {
		return
	}
	counter.Add(float64(n))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
