// Package render turns simulation frames into drawable scenes. The concrete
// surfaces live in the terminal and window subpackages.
package render

import (
	"fmt"
	"image/color"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// Field dimensions in world units. The origin is the centre of the field.
const (
	FieldWidth  = 1000.0
	FieldHeight = 900.0
)

// Title is shown in window title bars.
const Title = "Tether Probe Deorbit Simulation: Full Orbit View"

// Palette used by every renderer.
var (
	ColorBackground = color.RGBA{0, 0, 0, 255}
	ColorEarth      = color.RGBA{65, 105, 225, 255}  // royalblue
	ColorProbe      = color.RGBA{0, 191, 255, 255}   // deepskyblue
	ColorTether     = color.RGBA{0, 255, 255, 255}   // cyan
	ColorOrbiting   = color.RGBA{255, 0, 0, 255}     // red
	ColorSlowed     = color.RGBA{255, 165, 0, 255}   // orange
	ColorText       = color.RGBA{255, 255, 255, 255} // white
)

// Circle is a filled disc in world coordinates.
type Circle struct {
	Center model.Point
	Radius float64
	Color  color.RGBA
}

// Segment is a stroked line in world coordinates.
type Segment struct {
	From, To model.Point
	Width    float64
	Color    color.RGBA
}

// Label is text anchored at its top-left corner.
type Label struct {
	Pos   model.Point
	Text  string
	Color color.RGBA
}

// Scene is a frame reduced to primitives, back to front.
type Scene struct {
	Earth   Circle
	Tether  Segment
	Probe   Circle
	Debris  []Circle
	Counter Label
}

// Compose builds the scene for one frame. Collected debris are omitted.
func Compose(f core.Frame) Scene {
	s := Scene{
		Earth: Circle{Center: model.Point{X: 0, Y: -220}, Radius: 200, Color: ColorEarth},
		Tether: Segment{
			From:  f.TetherStart,
			To:    f.TetherEnd,
			Width: 3,
			Color: ColorTether,
		},
		Probe: Circle{Center: f.Probe, Radius: 15, Color: ColorProbe},
		Counter: Label{
			Pos:   model.Point{X: -470, Y: 430},
			Text:  CounterText(f.Collected),
			Color: ColorText,
		},
	}
	s.Debris = make([]Circle, 0, len(f.Debris))
	for _, d := range f.Debris {
		c, ok := DebrisColor(d.State)
		if !ok {
			continue
		}
		s.Debris = append(s.Debris, Circle{Center: d.Pos, Radius: 6, Color: c})
	}
	return s
}

// DebrisColor returns the colour for a state and false when the entity
// should not be drawn.
func DebrisColor(s model.State) (color.RGBA, bool) {
	switch s {
	case model.StateOrbiting:
		return ColorOrbiting, true
	case model.StateSlowed, model.StateFalling:
		return ColorSlowed, true
	default:
		return color.RGBA{}, false
	}
}

// CounterText formats the collection counter.
func CounterText(n uint64) string {
	return fmt.Sprintf("Debris Collected: %d", n)
}

// Viewport maps world coordinates onto a surface of Width x Height units
// (pixels or terminal cells) with Y growing downward.
type Viewport struct {
	Width, Height float64
}

// Project returns the surface coordinates of p.
func (v Viewport) Project(p model.Point) (x, y float64) {
	x = (p.X + FieldWidth/2) * v.Width / FieldWidth
	y = (FieldHeight/2 - p.Y) * v.Height / FieldHeight
	return x, y
}

// Unproject is the inverse of Project.
func (v Viewport) Unproject(x, y float64) model.Point {
	return model.Point{
		X: x*FieldWidth/v.Width - FieldWidth/2,
		Y: FieldHeight/2 - y*FieldHeight/v.Height,
	}
}

// ScaleX converts a world length along X to surface units.
func (v Viewport) ScaleX(l float64) float64 { return l * v.Width / FieldWidth }

// ScaleY converts a world length along Y to surface units.
func (v Viewport) ScaleY(l float64) float64 { return l * v.Height / FieldHeight }
