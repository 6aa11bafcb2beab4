//go:build cgo || windows || darwin

// Package window shows the viewer in a desktop window.
package window

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/roomview/pkg/viewer"
)

// Host runs an App inside an ebiten game loop.
type Host struct {
	Title string
}

// Run opens the window and blocks until it closes, the App stops or ctx
// ends.
func (h *Host) Run(ctx context.Context, a *viewer.App) error {
	title := h.Title
	if title == "" {
		title = "roomview"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(a.Config.Width, a.Config.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(a.Config.FPS)

	g := &game{ctx: ctx, app: a}
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return g.err
	}
	return err
}

type game struct {
	ctx context.Context
	app *viewer.App
	err error

	img      *ebiten.Image
	dragging bool
	lastX    int
	lastY    int

	// Last size passed to App.Resize
	outW, outH int
	dpr        float64
}

// keys maps ebiten keys to the names viewer.App.HandleKey understands.
var keys = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyG, "g"},
	{ebiten.KeyO, "o"},
	{ebiten.KeySpace, "space"},
	{ebiten.KeyArrowLeft, "left"},
	{ebiten.KeyArrowRight, "right"},
	{ebiten.KeyBracketLeft, "["},
	{ebiten.KeyBracketRight, "]"},
	{ebiten.KeyQ, "q"},
	{ebiten.KeyEscape, "escape"},
}

func (g *game) Update() error {
	a := g.app
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		name := "tab"
		if shift {
			name = "shift+tab"
		}
		a.HandleKey(name)
	}
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k.key) && a.HandleKey(k.name) == viewer.Stop {
			return ebiten.Termination
		}
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.dragging = true
	case g.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		// Cursor positions are in surface pixels
		r := a.Viewport.PixelRatio
		a.Drag(float64(x-g.lastX)/r, float64(y-g.lastY)/r)
	default:
		g.dragging = false
	}
	g.lastX, g.lastY = x, y
	if _, wy := ebiten.Wheel(); wy != 0 {
		a.Wheel(wy)
	}

	act, err := a.Tick(g.ctx)
	if err != nil {
		g.err = err
		return ebiten.Termination
	}
	if act == viewer.Stop {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	fb := g.app.Surface()
	if fb.Empty() {
		return
	}
	if g.img == nil || g.img.Bounds().Dx() != fb.Width || g.img.Bounds().Dy() != fb.Height {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(fb.Width, fb.Height)
	}
	g.img.WritePixels(fb.ToImage().Pix)

	op := &ebiten.DrawImageOptions{}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/float64(fb.Width), float64(sh)/float64(fb.Height))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.img, op)

	y := 0
	ebitenutil.DebugPrintAt(screen, g.app.Status(), 4, y)
	for _, l := range g.app.Panel.Lines() {
		y += 16
		text := l.Text
		if l.Selected {
			text = "> " + text
		}
		ebitenutil.DebugPrintAt(screen, text, 4, y)
	}
}

// Layout resizes the App when the window or the monitor scale changes.
// The screen is laid out at surface resolution.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	dpr := 1.0
	if m := ebiten.Monitor(); m != nil {
		dpr = m.DeviceScaleFactor()
	}
	if outsideWidth != g.outW || outsideHeight != g.outH || dpr != g.dpr {
		if err := g.app.Resize(outsideWidth, outsideHeight, dpr); err != nil {
			return max(1, outsideWidth), max(1, outsideHeight)
		}
		g.outW, g.outH, g.dpr = outsideWidth, outsideHeight, dpr
	}
	w, h := g.app.Viewport.SurfaceSize()
	return w, h
}

