// Package viewer wires the room scene, camera, controls, renderer and
// debug panel into a frame loop that hosts drive once per refresh.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/log"
	"github.com/taigrr/roomview/pkg/controls"
	"github.com/taigrr/roomview/pkg/debugui"
	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/render"
	"github.com/taigrr/roomview/pkg/scene"
	"github.com/taigrr/roomview/pkg/viewport"
)

// OrbitTarget is the point the camera orbits around.
var OrbitTarget = math3d.V3(0, 0.75, 0)

// Action tells a host whether to keep ticking.
type Action int

const (
	Continue Action = iota
	Stop
)

// FrameStats describes the most recent tick.
type FrameStats struct {
	Frames    int     // Ticks run so far
	Skipped   int     // Frames dropped because drawing failed
	Elapsed   float64 // Seconds since start
	Delta     float64 // Seconds since the previous tick
	FPS       float64 // Smoothed frame rate
	Triangles int     // Triangles drawn in the last frame
}

// App is the application context. Everything the frame loop touches hangs
// off it; there is no package state.
type App struct {
	Config   Config
	Viewport viewport.Viewport
	Scene    *scene.Scene
	Camera   *render.Camera
	Controls *controls.OrbitControls
	Clock    *Clock
	Renderer *render.Renderer
	Panel    *debugui.Panel
	Loader   *scene.Loader
	Lights   Lights
	Helper   *scene.DirectionalLightHelper
	Stats    FrameStats

	previous float64
	started  bool
}

// New validates cfg and builds the scene: floor, lights, helper, camera,
// orbit controls and debug panel. The model is not requested until Start.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &App{
		Config:   cfg,
		Scene:    scene.New(),
		Clock:    NewClock(cfg.Now),
		Renderer: render.NewRenderer(cfg.ShadowMapSize),
		Panel:    debugui.NewPanel("Controls"),
		Loader:   scene.NewLoader(cfg.Load),
	}
	a.Scene.Background = cfg.Background
	if err := a.Scene.Add(scene.NewFloor()); err != nil {
		return nil, err
	}
	var err error
	if a.Lights, a.Helper, err = addLights(a.Scene, cfg.ShadowMapSize); err != nil {
		return nil, err
	}
	BindDirectionalLight(a.Panel, a.Lights.Directional)

	a.Camera = render.NewCamera(float64(cfg.Width) / float64(cfg.Height))
	a.Controls = controls.NewOrbitControls(a.Camera, a.Camera.Position, OrbitTarget, cfg.FPS)
	a.Controls.EnableDamping = cfg.Damping

	if err := a.Resize(cfg.Width, cfg.Height, cfg.PixelRatio); err != nil {
		return nil, err
	}
	return a, nil
}

// Start requests the model. It returns immediately; the model appears in
// the scene on a later Tick.
func (a *App) Start(ctx context.Context) {
	if a.started {
		return
	}
	a.started = true
	if a.Config.ModelPath == "" {
		return
	}
	log.Infof("Loading %s", a.Config.ModelPath)
	a.Loader.Load(ctx, a.Config.ModelPath)
}

// Resize applies a new logical size and device pixel ratio: viewport,
// then camera projection, then drawing surface. Repeating a call with the
// same arguments changes nothing.
func (a *App) Resize(width, height int, deviceRatio float64) error {
	if err := a.Viewport.Resize(width, height, deviceRatio); err != nil {
		return err
	}
	a.Camera.SetAspectRatio(a.Viewport.Aspect())
	sw, sh := a.Viewport.SurfaceSize()
	a.Renderer.SetSize(sw, sh)
	a.Controls.SetSurfaceHeight(a.Viewport.Height)

	log.S(log.Debug, "Resized",
		log.Attr("width", width), log.Attr("height", height),
		log.Attr("pixel_ratio", a.Viewport.PixelRatio),
		log.Attr("surface_width", sw), log.Attr("surface_height", sh))
	return nil
}

// Tick runs one frame: advance time, attach a finished model, update the
// controls and helper, then draw. A *render.SurfaceInitError stops the
// loop; other draw errors drop the frame and the loop goes on.
func (a *App) Tick(ctx context.Context) (Action, error) {
	if ctx.Err() != nil {
		return Stop, nil
	}

	elapsed := a.Clock.ElapsedTime()
	delta := elapsed - a.previous
	a.previous = elapsed
	a.Stats.Frames++
	a.Stats.Elapsed = elapsed
	a.Stats.Delta = delta
	if delta > 0 {
		fps := 1 / delta
		if a.Stats.FPS == 0 {
			a.Stats.FPS = fps
		} else {
			a.Stats.FPS += (fps - a.Stats.FPS) * 0.1
		}
	}

	a.poll()
	a.Controls.Update()
	a.Helper.Update()

	if err := a.Renderer.Render(a.Scene, a.Camera); err != nil {
		var surfErr *render.SurfaceInitError
		if errors.As(err, &surfErr) {
			return Stop, err
		}
		a.Stats.Skipped++
		log.Errf("Frame %d skipped: %v", a.Stats.Frames, err)
		return Continue, nil
	}
	a.Stats.Triangles = a.Renderer.Stats.Triangles

	if ctx.Err() != nil {
		return Stop, nil
	}
	return Continue, nil
}

// poll attaches a finished model. A failed load leaves the rest of the
// scene rendering.
func (a *App) poll() {
	if _, err := a.Loader.Poll(a.Scene); err != nil {
		var loadErr *scene.AssetLoadError
		if errors.As(err, &loadErr) {
			log.S(log.Error, "Model not loaded, continuing without it",
				log.Str("path", loadErr.Path), log.Str("err", loadErr.Err.Error()))
			return
		}
		log.Errf("Model not loaded: %v", err)
	}
}

// Surface returns the drawing surface in physical pixels.
func (a *App) Surface() *render.Framebuffer {
	return a.Renderer.Surface
}

// Status is a one-line summary for host overlays.
func (a *App) Status() string {
	s := fmt.Sprintf("%.0f fps  %d tris", a.Stats.FPS, a.Stats.Triangles)
	if a.Controls.Moving() {
		s += "  orbiting"
	}
	if a.Loader.Pending() > 0 {
		s += "  loading..."
	}
	return s
}

// Driver is a host: it owns the display and calls Tick once per refresh
// until Tick says Stop or ctx ends.
type Driver interface {
	Run(ctx context.Context, a *App) error
}

// Drive starts a and hands it to d.
func Drive(ctx context.Context, a *App, d Driver) error {
	a.Start(ctx)
	return d.Run(ctx, a)
}
