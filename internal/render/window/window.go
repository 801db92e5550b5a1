// Package window draws the simulation in a desktop window with ebiten.
package window

import (
	"context"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/render"
)

// Game is a core.Presenter and an ebiten.Game. The simulation goroutine
// calls Refresh; ebiten's loop calls Update and Draw on the main thread.
type Game struct {
	ctx      context.Context
	controls render.Controls
	quit     func()
	view     render.Viewport

	mu    sync.Mutex
	frame core.Frame
}

// Option configures a Game.
type Option func(*Game)

// WithControls routes arrow keys to the given controls.
func WithControls(c render.Controls) Option {
	return func(g *Game) { g.controls = c }
}

// WithQuit registers the function called when the window is asked to close.
func WithQuit(fn func()) Option {
	return func(g *Game) { g.quit = fn }
}

// New returns a window presenter. The window closes when ctx is cancelled.
func New(ctx context.Context, opts ...Option) *Game {
	g := &Game{
		ctx:  ctx,
		quit: func() {},
		view: render.Viewport{Width: render.FieldWidth, Height: render.FieldHeight},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Refresh satisfies core.Presenter.
func (g *Game) Refresh(frame core.Frame) {
	g.mu.Lock()
	g.frame = frame
	g.mu.Unlock()
}

// Run opens the window and blocks until it closes. It must be called from
// the main goroutine.
func (g *Game) Run() error {
	ebiten.SetWindowSize(int(render.FieldWidth), int(render.FieldHeight))
	ebiten.SetWindowTitle(render.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	return ebiten.RunGame(g)
}

// Update satisfies ebiten.Game.
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() ||
		inpututil.IsKeyJustPressed(ebiten.KeyQ) ||
		inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.quit()
		return ebiten.Termination
	}

	for key, dir := range arrowKeys {
		if repeating(key) {
			g.controls.Move(dir)
		}
	}
	return nil
}

var arrowKeys = map[ebiten.Key]render.Direction{
	ebiten.KeyArrowLeft:  render.Left,
	ebiten.KeyArrowRight: render.Right,
	ebiten.KeyArrowUp:    render.Up,
	ebiten.KeyArrowDown:  render.Down,
}

// repeating reports a press on the first tick and then every fourth tick
// after a short hold, like a keyboard's auto-repeat.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 15 && d%4 == 0)
}

// Draw satisfies ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	scene := render.Compose(g.frame)
	g.mu.Unlock()

	screen.Fill(render.ColorBackground)
	g.fillCircle(screen, scene.Earth)

	x0, y0 := g.view.Project(scene.Tether.From)
	x1, y1 := g.view.Project(scene.Tether.To)
	vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1),
		float32(scene.Tether.Width), scene.Tether.Color, true)

	for _, d := range scene.Debris {
		g.fillCircle(screen, d)
	}
	g.fillCircle(screen, scene.Probe)

	lx, ly := g.view.Project(scene.Counter.Pos)
	ebitenutil.DebugPrintAt(screen, scene.Counter.Text, int(lx), int(ly))
}

// Layout satisfies ebiten.Game. The logical screen is the field itself.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return int(render.FieldWidth), int(render.FieldHeight)
}

func (g *Game) fillCircle(dst *ebiten.Image, c render.Circle) {
	x, y := g.view.Project(c.Center)
	vector.DrawFilledCircle(dst, float32(x), float32(y), float32(g.view.ScaleX(c.Radius)), c.Color, true)
}
