package core

import (
	"fmt"
	"math"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// ProbeMotion moves the probe once per tick, before the capture zone is
// computed. The probe is externally driven; the debris never affect it.
type ProbeMotion interface {
	UpdateProbe(simTime time.Time, p *model.Point)
}

// Probe motion kinds accepted by NewProbeMotion.
const (
	ProbeMotionStatic = "static"
	ProbeMotionManual = "manual"
	ProbeMotionTLE    = "tle"
)

// StaticMotionModel leaves the probe where it is.
type StaticMotionModel struct{}

// UpdateProbe for static motion does nothing.
func (m *StaticMotionModel) UpdateProbe(simTime time.Time, p *model.Point) {
	// no-op
}

// ManualMotionModel applies offsets queued by an input source (arrow keys in
// the renderers). Nudge may be called from any goroutine.
type ManualMotionModel struct {
	mu      sync.Mutex
	pending model.Point
}

// Nudge queues a displacement applied on the next tick.
func (m *ManualMotionModel) Nudge(dx, dy float64) {
	m.mu.Lock()
	m.pending = m.pending.Add(dx, dy)
	m.mu.Unlock()
}

// UpdateProbe applies and clears the queued displacement.
func (m *ManualMotionModel) UpdateProbe(simTime time.Time, p *model.Point) {
	m.mu.Lock()
	d := m.pending
	m.pending = model.Point{}
	m.mu.Unlock()

	p.X += d.X
	p.Y += d.Y
}

// OrbitalTrackMotionModel sweeps the probe across the field following the
// sub-satellite longitude of a TLE, propagated with SGP4. Longitude -180..180
// maps linearly onto -HalfSpan..HalfSpan; the probe's altitude on the field
// is left unchanged.
type OrbitalTrackMotionModel struct {
	sat      satellite.Satellite
	HalfSpan float64
}

// NewOrbitalTrackFromTLE constructs a track from TLE lines.
func NewOrbitalTrackFromTLE(line1, line2 string, halfSpan float64) *OrbitalTrackMotionModel {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &OrbitalTrackMotionModel{sat: sat, HalfSpan: halfSpan}
}

// UpdateProbe propagates the satellite to simTime and moves the probe's x.
func (m *OrbitalTrackMotionModel) UpdateProbe(simTime time.Time, p *model.Point) {
	lon := m.longitudeDeg(simTime)
	if math.IsNaN(lon) {
		return
	}
	p.X = lon / 180.0 * m.HalfSpan
}

func (m *OrbitalTrackMotionModel) longitudeDeg(simTime time.Time) float64 {
	t := simTime.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return math.Atan2(posECEF.Y, posECEF.X) * 180.0 / math.Pi
}

// DefaultTrackHalfSpan is the field half-width the TLE track sweeps when
// ProbeMotionSpec.HalfSpan is unset.
const DefaultTrackHalfSpan = 480.0

// ProbeMotionSpec selects and parameterises a probe motion model.
type ProbeMotionSpec struct {
	Kind     string  `yaml:"kind"`
	TLELine1 string  `yaml:"tle_line1"`
	TLELine2 string  `yaml:"tle_line2"`
	HalfSpan float64 `yaml:"half_span"`
}

// NewProbeMotion builds the motion model named by ms.Kind. An empty kind is
// static.
func NewProbeMotion(ms ProbeMotionSpec) (ProbeMotion, error) {
	switch ms.Kind {
	case "", ProbeMotionStatic:
		return &StaticMotionModel{}, nil
	case ProbeMotionManual:
		return &ManualMotionModel{}, nil
	case ProbeMotionTLE:
		if ms.TLELine1 == "" || ms.TLELine2 == "" {
			return nil, fmt.Errorf("probe motion %q requires both TLE lines", ms.Kind)
		}
		halfSpan := ms.HalfSpan
		if halfSpan <= 0 {
			halfSpan = DefaultTrackHalfSpan
		}
		return NewOrbitalTrackFromTLE(ms.TLELine1, ms.TLELine2, halfSpan), nil
	default:
		return nil, fmt.Errorf("unknown probe motion %q", ms.Kind)
	}
}
