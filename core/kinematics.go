package core

import (
	"math"
	"strings"

	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// Outcome is a set of things that happened to an entity during one
// kinematics step. A capture and the start of a fall can share a tick.
type Outcome uint8

const (
	// OutcomeCaptured means the entity entered the capture zone and slowed.
	OutcomeCaptured Outcome = 1 << iota
	// OutcomeFalling means the entity started to fall.
	OutcomeFalling
	// OutcomeCollected means the entity crossed the collection threshold.
	OutcomeCollected
	// OutcomeRespawned means the entity left the right boundary and
	// started a new life.
	OutcomeRespawned
	// OutcomeInactive means the entity was collected earlier and skipped.
	OutcomeInactive

	// OutcomeMoved means the entity advanced without changing state.
	OutcomeMoved Outcome = 0
)

// Has reports whether every flag of f is set in o.
func (o Outcome) Has(f Outcome) bool {
	return o&f == f
}

func (o Outcome) String() string {
	if o == OutcomeMoved {
		return "moved"
	}
	names := []struct {
		flag Outcome
		name string
	}{
		{OutcomeCaptured, "captured"},
		{OutcomeFalling, "falling"},
		{OutcomeCollected, "collected"},
		{OutcomeRespawned, "respawned"},
		{OutcomeInactive, "inactive"},
	}
	var out []string
	for _, n := range names {
		if o.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return strings.Join(out, "|")
}

// Kinematics advances individual entities by one tick.
type Kinematics struct {
	cfg     Config
	rng     Rand
	spawner *Spawner
}

// NewKinematics constructs the per-entity update rules.
func NewKinematics(cfg Config, rng Rand, spawner *Spawner) *Kinematics {
	return &Kinematics{cfg: cfg, rng: rng, spawner: spawner}
}

// Step advances d by one tick against the current capture zone.
func (k *Kinematics) Step(d *model.Debris, zone CaptureZone) Outcome {
	switch d.State {
	case model.StateCollected:
		return OutcomeInactive
	case model.StateFalling:
		return k.fall(d)
	}

	// Orbiting and slowed entities both ride the orbital wave; a slowed
	// entity does so at its halved dx.
	d.Pos.X += d.DX
	d.Pos.Y += math.Sin(d.Pos.X / k.cfg.WaveLength)

	// Slowed entities that drift off the right edge respawn too, not only
	// orbiting ones: a capture that has not yet turned into a fall is lost.
	if d.Pos.X >= k.cfg.RightBoundary {
		k.spawner.Spawn(d)
		return OutcomeRespawned
	}

	outcome := OutcomeMoved
	if d.State == model.StateOrbiting && zone.Contains(d.Pos) {
		d.TransitionToSlowed()
		outcome |= OutcomeCaptured
	}

	if d.State == model.StateSlowed {
		d.DY -= k.cfg.SlowDecay
		d.Pos.Y += d.DY
		if k.shouldFall(d) {
			d.TransitionToFalling(k.cfg.FallInitialSpeed)
			outcome |= OutcomeFalling
		}
	}
	return outcome
}

// shouldFall evaluates both triggers every tick. The random draw is taken
// even when the dy threshold already fired so the random stream does not
// depend on which trigger won.
func (k *Kinematics) shouldFall(d *model.Debris) bool {
	roll := k.rng.Float64()
	return d.DY < k.cfg.FallTriggerDY || roll < k.cfg.FallProbability
}

func (k *Kinematics) fall(d *model.Debris) Outcome {
	d.FallSpeed += k.cfg.FallAccel
	d.Pos.Y -= d.FallSpeed
	d.Pos.X += k.cfg.SwayAmplitude * math.Sin(d.Pos.Y/k.cfg.SwayWavelength)

	if d.Pos.Y < k.cfg.CollectionY {
		d.Collect()
		return OutcomeCollected
	}
	return OutcomeMoved
}
