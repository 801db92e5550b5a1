// Package terminal draws the simulation into a tcell screen.
package terminal

import (
	"context"
	"image/color"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/render"
	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

const (
	probeRune  = 'O'
	debrisRune = '●'
	tetherRune = '│'
	helpText   = "←↑→↓ move probe   q quit"
)

// Renderer is a core.Presenter backed by a tcell screen. Refresh only
// stores the latest frame; Run owns the screen and does the drawing.
type Renderer struct {
	screen   tcell.Screen
	controls render.Controls
	quit     func()

	frames chan core.Frame
	last   core.Frame
	drawn  bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithControls routes arrow keys to the given controls.
func WithControls(c render.Controls) Option {
	return func(r *Renderer) { r.controls = c }
}

// WithQuit registers the function called when the user presses a quit key.
func WithQuit(fn func()) Option {
	return func(r *Renderer) { r.quit = fn }
}

// NewScreen creates and initialises the terminal screen.
func NewScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// New wraps an initialised screen.
func New(screen tcell.Screen, opts ...Option) *Renderer {
	r := &Renderer{
		screen: screen,
		quit:   func() {},
		frames: make(chan core.Frame, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.HideCursor()
	return r
}

// Refresh satisfies core.Presenter. It never blocks: an undrawn frame is
// replaced by the newer one.
func (r *Renderer) Refresh(frame core.Frame) {
	for {
		select {
		case r.frames <- frame:
			return
		default:
		}
		select {
		case <-r.frames:
		default:
		}
	}
}

// Run draws frames and handles input until ctx is cancelled or a quit key
// is pressed. The screen is finalised on return.
func (r *Renderer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	defer func() {
		close(done)
		r.screen.Fini()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-r.frames:
			r.draw(f)
		case ev := <-events:
			if r.handleEvent(ev) {
				r.quit()
				return nil
			}
		}
	}
}

// handleEvent reports whether ev asks to quit.
func (r *Renderer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			r.controls.Move(render.Left)
		case tcell.KeyRight:
			r.controls.Move(render.Right)
		case tcell.KeyUp:
			r.controls.Move(render.Up)
		case tcell.KeyDown:
			r.controls.Move(render.Down)
		case tcell.KeyRune:
			if ev.Rune() == 'q' || ev.Rune() == 'Q' {
				return true
			}
		}
	case *tcell.EventResize:
		r.screen.Sync()
		if r.drawn {
			r.draw(r.last)
		}
	}
	return false
}

func (r *Renderer) draw(f core.Frame) {
	r.last, r.drawn = f, true

	w, h := r.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	view := render.Viewport{Width: float64(w), Height: float64(h)}
	scene := render.Compose(f)

	r.screen.Clear()
	r.drawDisc(view, scene.Earth, w, h)
	r.drawTether(view, scene.Tether, h)

	for _, d := range scene.Debris {
		r.plot(view, d.Center, debrisRune, d.Color, false)
	}
	r.plot(view, scene.Probe.Center, probeRune, scene.Probe.Color, true)

	cx, cy := view.Project(scene.Counter.Pos)
	r.text(int(cx), max(int(cy), 0), scene.Counter.Text, styleFor(scene.Counter.Color).Bold(true))
	r.text(1, h-1, helpText, tcell.StyleDefault.Foreground(tcell.ColorGray))

	r.screen.Show()
}

// drawDisc fills every cell whose centre lies inside c.
func (r *Renderer) drawDisc(view render.Viewport, c render.Circle, w, h int) {
	style := tcell.StyleDefault.Background(toColor(c.Color))
	_, top := view.Project(c.Center.Add(0, c.Radius))
	_, bottom := view.Project(c.Center.Add(0, -c.Radius))
	for y := max(int(top), 0); y <= min(int(bottom), h-1); y++ {
		for x := 0; x < w; x++ {
			p := view.Unproject(float64(x)+0.5, float64(y)+0.5)
			if math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y) <= c.Radius {
				r.screen.SetContent(x, y, ' ', nil, style)
			}
		}
	}
}

func (r *Renderer) drawTether(view render.Viewport, s render.Segment, h int) {
	x, y0 := view.Project(s.From)
	_, y1 := view.Project(s.To)
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	col := int(math.Floor(x))
	style := styleFor(s.Color)
	for y := max(int(y0), 0); y <= min(int(y1), h-1); y++ {
		r.screen.SetContent(col, y, tetherRune, nil, style)
	}
}

// plot draws ch at p, keeping the cell's background so markers stay
// visible over the Earth disc.
func (r *Renderer) plot(view render.Viewport, p model.Point, ch rune, fg color.RGBA, bold bool) {
	x, y := view.Project(p)
	w, h := r.screen.Size()
	ix, iy := int(math.Floor(x)), int(math.Floor(y))
	if ix < 0 || iy < 0 || ix >= w || iy >= h {
		return
	}
	_, _, style, _ := r.screen.GetContent(ix, iy)
	r.screen.SetContent(ix, iy, ch, nil, style.Foreground(toColor(fg)).Bold(bold))
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func styleFor(c color.RGBA) tcell.Style {
	return tcell.StyleDefault.Foreground(toColor(c)).Background(tcell.ColorBlack)
}

func toColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
