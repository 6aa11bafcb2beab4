package viewer

// Keys lists the key names HandleKey understands, in the form hosts match
// against ("shift+tab", "ctrl+c").
var Keys = []string{
	"g", "tab", "shift+tab", "left", "right", "[", "]", "o", "space",
	"q", "esc", "escape", "ctrl+c",
}

// coarseNudge is the number of slider steps moved by [ and ].
const coarseNudge = 100

// Drag rotates the camera by a pointer drag of dx, dy logical pixels.
func (a *App) Drag(dx, dy float64) {
	a.Controls.Rotate(dx, dy)
}

// Wheel dollies the camera; positive steps move closer.
func (a *App) Wheel(steps float64) {
	a.Controls.Dolly(steps)
}

// HandleKey routes one key press: panel navigation, stopping the camera or
// quit. Navigation keys are ignored while the panel is hidden.
func (a *App) HandleKey(key string) Action {
	p := a.Panel
	switch key {
	case "q", "esc", "escape", "ctrl+c":
		return Stop
	case "g":
		p.Toggle()
		return Continue
	case "space":
		a.Controls.Stop()
		return Continue
	}
	if !p.Visible {
		return Continue
	}
	switch key {
	case "tab":
		p.Next()
	case "shift+tab":
		p.Prev()
	case "o":
		p.ToggleFolder()
	case "left":
		p.Nudge(-1)
	case "right":
		p.Nudge(1)
	case "[":
		p.Nudge(-coarseNudge)
	case "]":
		p.Nudge(coarseNudge)
	}
	return Continue
}
