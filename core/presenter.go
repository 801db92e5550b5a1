package core

import "github.com/signalsfoundry/tether-deorbit-sim/model"

// DebrisView is the presentation-facing copy of one entity.
type DebrisView struct {
	ID    int
	Pos   model.Point
	State model.State
}

// Frame is everything a presenter needs to redraw one tick. Frames are
// copies; presenters may keep them after Refresh returns.
type Frame struct {
	Tick        uint64
	Probe       model.Point
	TetherStart model.Point
	TetherEnd   model.Point
	Debris      []DebrisView
	Collected   uint64
}

// Presenter is the drawing surface the engine writes to after every tick.
// Refresh must not block; the engine does not wait on its outcome.
type Presenter interface {
	Refresh(frame Frame)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(Frame)

// Refresh calls f(frame).
func (f PresenterFunc) Refresh(frame Frame) { f(frame) }

type noopPresenter struct{}

func (noopPresenter) Refresh(Frame) {}
