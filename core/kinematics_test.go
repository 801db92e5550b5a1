package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// constRand returns the same value on every draw.
type constRand float64

func (r constRand) Float64() float64 { return float64(r) }

// noFall never fires the random fall trigger with the default probability.
const noFall = constRand(0.99)

// farZone is a capture zone nothing on the field can enter.
var farZone = ComputeZone(model.Point{X: 0, Y: 10000}, 12, 180)

func newTestKinematics(cfg Config, rng Rand) *Kinematics {
	return NewKinematics(cfg, rng, NewSpawner(cfg, rng))
}

func slowedDebris(pos model.Point, dx, dyAfterHalving float64) *model.Debris {
	d := model.NewDebris(0, pos, dx*2, dyAfterHalving*2)
	d.TransitionToSlowed()
	return d
}

func TestKinematics_OrbitingRespawnsAfter520Ticks(t *testing.T) {
	cfg := DefaultConfig()
	k := newTestKinematics(cfg, constRand(0.5))
	d := model.NewDebris(0, model.Point{X: -520, Y: 100}, 2.0, 0)

	for i := 1; i < 520; i++ {
		if out := k.Step(d, farZone); out != OutcomeMoved {
			t.Fatalf("tick %d: outcome = %s, want moved", i, out)
		}
		if want := -520 + 2.0*float64(i); d.Pos.X != want {
			t.Fatalf("tick %d: x = %v, want %v", i, d.Pos.X, want)
		}
		if d.State != model.StateOrbiting {
			t.Fatalf("tick %d: state = %s, want orbiting", i, d.State)
		}
	}

	if out := k.Step(d, farZone); out != OutcomeRespawned {
		t.Fatalf("tick 520: outcome = %s, want respawned", out)
	}
	if d.Pos.X != cfg.LeftBoundary {
		t.Fatalf("respawn x = %v, want %v", d.Pos.X, cfg.LeftBoundary)
	}
	if d.State != model.StateOrbiting {
		t.Fatalf("respawn state = %s, want orbiting", d.State)
	}
	if !cfg.DXRange.Contains(d.DX) || !cfg.DYRange.Contains(d.DY) {
		t.Fatalf("respawn drift (%v, %v) outside configured ranges", d.DX, d.DY)
	}
	if !cfg.SpawnYRange.Contains(d.Pos.Y) {
		t.Fatalf("respawn y = %v outside %+v", d.Pos.Y, cfg.SpawnYRange)
	}
}

func TestKinematics_OrbitingFollowsWave(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	d := model.NewDebris(0, model.Point{X: 0, Y: 50}, 2.0, 0.1)

	k.Step(d, farZone)

	if d.Pos.X != 2.0 {
		t.Fatalf("x = %v, want 2", d.Pos.X)
	}
	if want := 50 + math.Sin(2.0/100); math.Abs(d.Pos.Y-want) > 1e-12 {
		t.Fatalf("y = %v, want %v", d.Pos.Y, want)
	}
	if d.DY != 0.1 {
		t.Fatalf("dy must not change while orbiting, got %v", d.DY)
	}
}

func TestKinematics_ZoneEntryHalvesOnce(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	zone := ComputeZone(model.Point{X: 0, Y: 300}, 12, 180)
	d := model.NewDebris(0, model.Point{X: -13, Y: 200}, 2.0, 0.1)

	out := k.Step(d, zone)
	if !out.Has(OutcomeCaptured) || out.Has(OutcomeFalling) {
		t.Fatalf("first entry outcome = %s, want captured only", out)
	}
	if d.State != model.StateSlowed {
		t.Fatalf("state = %s, want slowed", d.State)
	}
	if d.DX != 1.0 {
		t.Fatalf("dx = %v, want 1 after halving", d.DX)
	}
	if want := 0.05 - 0.01; math.Abs(d.DY-want) > 1e-12 {
		t.Fatalf("dy = %v, want %v (halved then decayed)", d.DY, want)
	}

	out = k.Step(d, zone)
	if !zone.Contains(d.Pos) {
		t.Fatalf("expected debris to still be inside the zone at %+v", d.Pos)
	}
	if out != OutcomeMoved {
		t.Fatalf("second tick outcome = %s, want moved", out)
	}
	if d.DX != 1.0 {
		t.Fatalf("dx = %v, re-entry must not halve again", d.DX)
	}
	if want := 0.05 - 0.02; math.Abs(d.DY-want) > 1e-12 {
		t.Fatalf("dy = %v, want %v", d.DY, want)
	}
}

func TestKinematics_SlowedBelowThresholdFallsDeterministically(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	d := slowedDebris(model.Point{X: 0, Y: 100}, 1.0, -1.6)

	out := k.Step(d, farZone)

	if out != OutcomeFalling {
		t.Fatalf("outcome = %s, want falling", out)
	}
	if d.State != model.StateFalling {
		t.Fatalf("state = %s, want falling", d.State)
	}
	if d.FallSpeed != 0.5 {
		t.Fatalf("fall speed = %v, want 0.5", d.FallSpeed)
	}
}

func TestKinematics_SlowedRandomTrigger(t *testing.T) {
	cases := []struct {
		name string
		rng  Rand
		want model.State
	}{
		{"roll above probability", constRand(0.005), model.StateSlowed},
		{"roll below probability", constRand(0.004), model.StateFalling},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := newTestKinematics(DefaultConfig(), tc.rng)
			d := slowedDebris(model.Point{X: 0, Y: 100}, 1.0, -0.5)

			k.Step(d, farZone)
			if d.State != tc.want {
				t.Fatalf("state = %s, want %s", d.State, tc.want)
			}
		})
	}
}

func TestKinematics_SlowedKeepsDrifting(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	d := slowedDebris(model.Point{X: 100, Y: 100}, 1.0, 0)

	k.Step(d, farZone)

	if d.Pos.X != 101 {
		t.Fatalf("slowed x = %v, want 101", d.Pos.X)
	}
	wantY := 100 + math.Sin(101.0/100) - 0.01
	if math.Abs(d.Pos.Y-wantY) > 1e-12 {
		t.Fatalf("slowed y = %v, want %v", d.Pos.Y, wantY)
	}
}

func TestKinematics_SlowedRespawnsAtRightBoundary(t *testing.T) {
	cfg := DefaultConfig()
	k := newTestKinematics(cfg, noFall)
	d := slowedDebris(model.Point{X: 519.5, Y: 100}, 1.0, 0)

	if out := k.Step(d, farZone); out != OutcomeRespawned {
		t.Fatalf("outcome = %s, want respawned", out)
	}
	if d.State != model.StateOrbiting || d.Pos.X != cfg.LeftBoundary {
		t.Fatalf("respawned slowed debris = %s at x %v, want orbiting at %v", d.State, d.Pos.X, cfg.LeftBoundary)
	}
}

func TestKinematics_CaptureAndFallOnSameTick(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	zone := ComputeZone(model.Point{X: 0, Y: 300}, 12, 180)
	d := model.NewDebris(0, model.Point{X: -13, Y: 200}, 2.0, -3.2)

	out := k.Step(d, zone)

	if !out.Has(OutcomeCaptured) || !out.Has(OutcomeFalling) {
		t.Fatalf("outcome = %s, want captured|falling", out)
	}
	if d.State != model.StateFalling {
		t.Fatalf("state = %s, want falling", d.State)
	}
}

func TestKinematics_FallingCrossesCollectionOnTick16(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	d := slowedDebris(model.Point{X: 0, Y: -230}, 1.0, 0)
	d.TransitionToFalling(0.5)

	for i := 1; i <= 15; i++ {
		if out := k.Step(d, farZone); out != OutcomeMoved {
			t.Fatalf("tick %d: outcome = %s, want moved (y=%v)", i, out, d.Pos.Y)
		}
	}
	if d.State != model.StateFalling {
		t.Fatalf("state after 15 ticks = %s, want falling", d.State)
	}

	if out := k.Step(d, farZone); out != OutcomeCollected {
		t.Fatalf("tick 16: outcome = %s, want collected (y=%v)", out, d.Pos.Y)
	}
	if d.IsActive() {
		t.Fatalf("collected debris must be inactive")
	}

	pos := d.Pos
	if out := k.Step(d, farZone); out != OutcomeInactive {
		t.Fatalf("after collection outcome = %s, want inactive", out)
	}
	if d.Pos != pos {
		t.Fatalf("inactive debris moved from %+v to %+v", pos, d.Pos)
	}
}

func TestKinematics_FallingAcceleratesAndSways(t *testing.T) {
	k := newTestKinematics(DefaultConfig(), noFall)
	d := slowedDebris(model.Point{X: 10, Y: 100}, 1.0, 0)
	d.TransitionToFalling(0.5)

	k.Step(d, farZone)

	if math.Abs(d.FallSpeed-0.52) > 1e-12 {
		t.Fatalf("fall speed = %v, want 0.52", d.FallSpeed)
	}
	wantY := 100 - 0.52
	if math.Abs(d.Pos.Y-wantY) > 1e-12 {
		t.Fatalf("y = %v, want %v", d.Pos.Y, wantY)
	}
	wantX := 10 + 0.5*math.Sin(wantY/80)
	if math.Abs(d.Pos.X-wantX) > 1e-12 {
		t.Fatalf("x = %v, want %v", d.Pos.X, wantX)
	}
}

func TestOutcomeString(t *testing.T) {
	if got := OutcomeMoved.String(); got != "moved" {
		t.Fatalf("OutcomeMoved = %q", got)
	}
	if got := (OutcomeCaptured | OutcomeFalling).String(); got != "captured|falling" {
		t.Fatalf("captured|falling = %q", got)
	}
}
