package model

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the panic value (wrapped) raised when the debris
// lifecycle is driven along an edge that does not exist.
var ErrInvalidTransition = errors.New("invalid debris state transition")

// State is the lifecycle state of a debris entity.
type State int

const (
	// StateOrbiting drifts right along the orbital wave.
	StateOrbiting State = iota
	// StateSlowed has been caught by the tether and is losing altitude.
	StateSlowed
	// StateFalling is accelerating toward the collection threshold.
	StateFalling
	// StateCollected is inactive: the entity crossed the collection
	// threshold and waits for a respawn, if any.
	StateCollected
)

func (s State) String() string {
	switch s {
	case StateOrbiting:
		return "orbiting"
	case StateSlowed:
		return "slowed"
	case StateFalling:
		return "falling"
	case StateCollected:
		return "collected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Debris is one member of the simulated debris population.
type Debris struct {
	ID  int
	Pos Point

	// DX is the horizontal drift per tick, DY the vertical drift used while
	// slowed. Both are sampled at spawn only.
	DX float64
	DY float64

	// FallSpeed accumulates while Falling and is zero otherwise.
	FallSpeed float64

	State State
}

// NewDebris constructs a freshly spawned, orbiting entity.
func NewDebris(id int, pos Point, dx, dy float64) *Debris {
	d := &Debris{ID: id}
	d.Spawn(pos, dx, dy)
	return d
}

// Spawn resets every field and starts a new life in StateOrbiting.
func (d *Debris) Spawn(pos Point, dx, dy float64) {
	d.Pos = pos
	d.DX = dx
	d.DY = dy
	d.FallSpeed = 0
	d.State = StateOrbiting
}

// TransitionToSlowed halves both drift rates and marks the entity slowed.
// Calling it on an already slowed entity is a no-op.
func (d *Debris) TransitionToSlowed() {
	switch d.State {
	case StateSlowed:
		return
	case StateOrbiting:
		d.DX *= 0.5
		d.DY *= 0.5
		d.State = StateSlowed
	default:
		d.invalid(StateSlowed)
	}
}

// TransitionToFalling starts the fall with the given initial speed. Only a
// slowed entity may start falling.
func (d *Debris) TransitionToFalling(initialSpeed float64) {
	if d.State != StateSlowed {
		d.invalid(StateFalling)
	}
	d.FallSpeed = initialSpeed
	d.State = StateFalling
}

// Collect deactivates a falling entity that crossed the collection threshold.
func (d *Debris) Collect() {
	if d.State != StateFalling {
		d.invalid(StateCollected)
	}
	d.FallSpeed = 0
	d.State = StateCollected
}

// IsActive reports whether the entity still takes part in the simulation.
func (d *Debris) IsActive() bool {
	return d.State != StateCollected
}

func (d *Debris) invalid(to State) {
	panic(fmt.Errorf("debris %d: %s -> %s: %w", d.ID, d.State, to, ErrInvalidTransition))
}
