package core

import "github.com/signalsfoundry/tether-deorbit-sim/model"

// CaptureZone is the rectangle swept by the tether below the probe. It is
// recomputed from the probe position every tick and never stored.
type CaptureZone struct {
	Left   float64
	Right  float64
	Bottom float64
	Top    float64

	anchor model.Point
}

// ComputeZone returns the capture zone for a probe at the given position:
// halfWidth either side of the probe's x, from the probe's y down to
// probe.Y - length.
func ComputeZone(probe model.Point, halfWidth, length float64) CaptureZone {
	return CaptureZone{
		Left:   probe.X - halfWidth,
		Right:  probe.X + halfWidth,
		Bottom: probe.Y - length,
		Top:    probe.Y,
		anchor: probe,
	}
}

// Contains reports whether p lies strictly inside the zone on both axes.
func (z CaptureZone) Contains(p model.Point) bool {
	return z.Left < p.X && p.X < z.Right &&
		z.Bottom < p.Y && p.Y < z.Top
}

// TetherEnds returns the tether's anchor on the probe and its free tip.
func (z CaptureZone) TetherEnds() (start, end model.Point) {
	return z.anchor, model.Point{X: z.anchor.X, Y: z.Bottom}
}
