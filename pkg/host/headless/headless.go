// Package headless runs the viewer without a display, for scripted
// snapshots and tests.
package headless

import (
	"context"
	"fmt"
	"time"

	"fortio.org/log"
	"github.com/taigrr/roomview/pkg/render"
	"github.com/taigrr/roomview/pkg/viewer"
)

// Host ticks the App from a timer.
type Host struct {
	Hz     int    // Tick rate, 60 when unset
	Frames int    // Stop after this many frames; 0 runs until ctx ends
	Output string // PNG written after the last frame when set

	// WaitForModel holds off counting Frames until the model has been
	// attached or has failed to load.
	WaitForModel bool
}

// Run ticks a until the frame budget is spent, the App stops or ctx ends,
// then writes Output.
func (h *Host) Run(ctx context.Context, a *viewer.App) error {
	hz := h.Hz
	if hz <= 0 {
		hz = 60
	}
	d := time.Second / time.Duration(hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return h.finish(a)
		case <-t.C:
			act, err := a.Tick(ctx)
			if err != nil {
				return err
			}
			if act == viewer.Continue && h.WaitForModel && a.Loader.Pending() > 0 {
				continue
			}
			frames++
			if act == viewer.Stop || (h.Frames > 0 && frames >= h.Frames) {
				return h.finish(a)
			}
		}
	}
}

// finish saves the last frame at the logical size.
func (h *Host) finish(a *viewer.App) error {
	if h.Output == "" {
		return nil
	}
	out := render.NewFramebuffer(a.Viewport.Width, a.Viewport.Height)
	a.Surface().Downsample(out)
	if err := out.SavePNG(h.Output); err != nil {
		return err
	}
	log.S(log.Info, "Snapshot written",
		log.Str("path", h.Output),
		log.Attr("frames", a.Stats.Frames),
		log.Attr("width", out.Width), log.Attr("height", out.Height))
	return nil
}
