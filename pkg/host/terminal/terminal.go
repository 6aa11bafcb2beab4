// Package terminal shows the viewer in a terminal using half-block cells:
// every cell carries two vertically stacked pixels.
package terminal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"fortio.org/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/roomview/pkg/render"
	"github.com/taigrr/roomview/pkg/viewer"
)

var (
	panelFg    = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	panelBg    = color.RGBA{R: 24, G: 24, B: 32, A: 255}
	selectedBg = color.RGBA{R: 70, G: 70, B: 110, A: 255}
	headerFg   = color.RGBA{R: 255, G: 210, B: 90, A: 255}
)

// Host drives an App from the terminal's event stream.
type Host struct {
	FPS int
	// PixelRatio supersamples each half-block pixel. Terminals report no
	// device ratio, so this is the only source.
	PixelRatio float64
}

// Run takes over the terminal until the App stops or ctx ends.
func (h *Host) Run(ctx context.Context, a *viewer.App) error {
	fps := h.FPS
	if fps <= 0 {
		fps = a.Config.FPS
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	display := render.NewFramebuffer(0, 0)
	resize := func(w, h2 int) error {
		width, height = w, h2
		display.Resize(width, height*2)
		return a.Resize(width, height*2, h.PixelRatio)
	}
	if err := resize(width, height); err != nil {
		return err
	}

	var mouseDown bool
	var lastMouseX, lastMouseY int
	events := term.Events()

	targetDuration := time.Second / time.Duration(fps)
	for {
		now := time.Now()

		// Input is applied on the frame goroutine only
	drain:
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					term.Erase()
					term.Resize(ev.Width, ev.Height)
					if err := resize(ev.Width, ev.Height); err != nil {
						log.Warnf("Ignoring resize to %dx%d: %v", ev.Width, ev.Height, err)
					}
				case uv.KeyPressEvent:
					for _, k := range viewer.Keys {
						if ev.MatchString(k) {
							if a.HandleKey(k) == viewer.Stop {
								return nil
							}
							break
						}
					}
				case uv.MouseClickEvent:
					mouseDown = true
					lastMouseX, lastMouseY = ev.X, ev.Y
				case uv.MouseReleaseEvent:
					mouseDown = false
				case uv.MouseMotionEvent:
					if mouseDown {
						// One cell is one pixel wide and two tall
						a.Drag(float64(ev.X-lastMouseX), float64(ev.Y-lastMouseY)*2)
						lastMouseX, lastMouseY = ev.X, ev.Y
					}
				case uv.MouseWheelEvent:
					switch ev.Button {
					case uv.MouseWheelUp:
						a.Wheel(1)
					case uv.MouseWheelDown:
						a.Wheel(-1)
					}
				}
			default:
				break drain
			}
		}

		act, err := a.Tick(ctx)
		if err != nil {
			return err
		}
		if act == viewer.Stop {
			return nil
		}

		a.Surface().Downsample(display)
		area := uv.Rectangle(image.Rect(0, 0, width, height))
		display.Draw(term, area)
		drawPanel(term, a, width, height)
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// drawPanel writes the status line and the debug panel in the top-left
// corner.
func drawPanel(scr uv.Screen, a *viewer.App, width, height int) {
	row := 0
	put := func(text string, fg, bg color.RGBA) {
		if row >= height {
			return
		}
		col := 0
		for _, r := range " " + text + " " {
			if col >= width {
				break
			}
			scr.SetCell(col, row, &uv.Cell{
				Content: string(r),
				Width:   1,
				Style:   uv.Style{Fg: fg, Bg: bg},
			})
			col++
		}
		row++
	}

	put(a.Status(), panelFg, panelBg)
	for _, l := range a.Panel.Lines() {
		fg, bg := panelFg, panelBg
		if l.Header {
			fg = headerFg
		}
		if l.Selected {
			bg = selectedBg
		}
		put(l.Text, fg, bg)
	}
}
