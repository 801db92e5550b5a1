package render

import "github.com/signalsfoundry/tether-deorbit-sim/core"

// Direction is a probe nudge requested by an input device.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// DefaultStep is the probe displacement per key press in world units.
const DefaultStep = 10.0

// Controls routes input to a manually driven probe. A nil Probe ignores
// input, which is how renderers behave when the probe follows an orbit.
type Controls struct {
	Probe *core.ManualMotionModel
	Step  float64
}

// Move nudges the probe one step in direction d.
func (c Controls) Move(d Direction) {
	if c.Probe == nil {
		return
	}
	step := c.Step
	if step <= 0 {
		step = DefaultStep
	}
	switch d {
	case Left:
		c.Probe.Nudge(-step, 0)
	case Right:
		c.Probe.Nudge(step, 0)
	case Up:
		c.Probe.Nudge(0, step)
	case Down:
		c.Probe.Nudge(0, -step)
	}
}
