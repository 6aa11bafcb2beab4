// roomview - 3D room viewer
// Shows a glTF room on a floor under an ambient and a shadow-casting
// directional light, with an orbit camera and a light tweak panel.
//
// Controls:
//
//	Mouse drag  - Orbit around the room
//	Scroll      - Zoom in/out
//	G           - Show/hide the panel
//	Tab         - Next panel row (Shift+Tab: previous)
//	O           - Open/close the selected folder
//	Space       - Stop the camera coasting
//	Left/Right  - Nudge the selected slider by one step
//	[ / ]       - Nudge the selected slider by 100 steps
//	Q/Esc       - Quit
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/taigrr/roomview/pkg/host/headless"
	"github.com/taigrr/roomview/pkg/host/terminal"
	"github.com/taigrr/roomview/pkg/host/window"
	"github.com/taigrr/roomview/pkg/viewer"
)

func main() {
	def := viewer.DefaultConfig()
	host := flag.String("host", "terminal", "Display host: terminal, window or headless")
	fps := flag.Int("fps", def.FPS, "Target FPS")
	dpr := flag.Float64("dpr", def.PixelRatio, "Device pixel ratio (capped at 2)")
	shadowMapSize := flag.Int("shadow-map-size", def.ShadowMapSize, "Shadow map resolution (capped at 4096)")
	frames := flag.Int("frames", 1, "Headless: frames to render once the model has loaded or failed (0 = until interrupted)")
	out := flag.String("out", "", "Headless: write the last frame to this PNG")
	width := flag.Int("width", def.Width, "Window/headless width")
	height := flag.Int("height", def.Height, "Window/headless height")
	bg := flag.String("bg", "0,0,0", "Background color (R,G,B or #rrggbb)")
	noDamping := flag.Bool("no-damping", false, "Stop the camera as soon as the drag ends")
	cli.ArgsHelp = "[model.gltf|model.glb] (default: " + viewer.DefaultModelPath + ")"
	cli.MinArgs = 0
	cli.MaxArgs = 1
	cli.Main()

	cfg := def
	if flag.NArg() > 0 {
		cfg.ModelPath = flag.Arg(0)
	}
	cfg.FPS = *fps
	cfg.PixelRatio = *dpr
	cfg.ShadowMapSize = *shadowMapSize
	cfg.Width, cfg.Height = *width, *height
	cfg.Damping = !*noDamping
	color, err := viewer.ParseColor(*bg)
	if err != nil {
		os.Exit(log.FErrf("-bg: %v", err))
	}
	cfg.Background = color

	var d viewer.Driver
	switch *host {
	case "terminal":
		d = &terminal.Host{FPS: cfg.FPS, PixelRatio: cfg.PixelRatio}
	case "window":
		d = &window.Host{}
	case "headless":
		d = &headless.Host{Hz: cfg.FPS, Frames: *frames, Output: *out, WaitForModel: true}
	default:
		os.Exit(log.FErrf("unknown -host %q (want terminal, window or headless)", *host))
	}
	os.Exit(run(cfg, d))
}

func run(cfg viewer.Config, d viewer.Driver) int {
	app, err := viewer.New(cfg)
	if err != nil {
		return log.FErrf("%v", err)
	}

	// Context for clean shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := viewer.Drive(ctx, app, d); err != nil {
		return log.FErrf("%v", err)
	}
	log.Infof("Rendered %d frames (%d skipped)", app.Stats.Frames, app.Stats.Skipped)
	return 0
}
