// Package controls turns pointer input into camera motion around a target.
package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/roomview/pkg/math3d"
)

// Camera is what OrbitControls drives.
type Camera interface {
	SetPosition(pos math3d.Vec3)
	LookAt(target math3d.Vec3)
}

const (
	// springFrequency 4.0 = moderate speed; damping 1.0 = critically damped (no overshoot)
	springFrequency = 4.0
	springDamping   = 1.0

	// zoomBase is the radius factor of one wheel step at ZoomSpeed 1.
	zoomBase = 0.95

	restEpsilon = 1e-9
)

// axis tracks the velocity of one spherical coordinate. With damping the
// velocity decays toward 0 through a spring instead of stopping at once.
type axis struct {
	Velocity float64
	spring   harmonica.Spring
	accel    float64 // internal spring velocity (for animating Velocity toward 0)
}

func newAxis(fps int) axis {
	return axis{spring: harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping)}
}

// step returns the amount to apply this frame and advances the decay.
func (a *axis) step(damping bool) float64 {
	v := a.Velocity
	if !damping {
		a.Velocity, a.accel = 0, 0
		return v
	}
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	if math.Abs(a.Velocity) < restEpsilon && math.Abs(a.accel) < restEpsilon {
		a.Velocity, a.accel = 0, 0
	}
	return v
}

// OrbitControls orbits a camera around Target. Drags rotate, the wheel
// dollies; Update must be called once per frame.
type OrbitControls struct {
	Target        math3d.Vec3
	EnableDamping bool
	RotateSpeed   float64
	ZoomSpeed     float64
	MinDistance   float64
	MaxDistance   float64

	cam           Camera
	position      math3d.Vec3
	theta, phi    axis
	scale         float64
	fps           int
	surfaceHeight int
}

// NewOrbitControls creates controls for cam placed at eye. fps is the
// expected update rate and tunes the damping spring.
func NewOrbitControls(cam Camera, eye, target math3d.Vec3, fps int) *OrbitControls {
	if fps <= 0 {
		fps = 60
	}
	c := &OrbitControls{
		Target:        target,
		EnableDamping: true,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		MinDistance:   0.5,
		MaxDistance:   50,
		cam:           cam,
		position:      eye,
		theta:         newAxis(fps),
		phi:           newAxis(fps),
		scale:         1,
		fps:           fps,
		surfaceHeight: 1,
	}
	c.Update()
	return c
}

// SetSurfaceHeight sets the height in pixels used to turn drags into
// angles: dragging across the full height turns by one revolution.
func (c *OrbitControls) SetSurfaceHeight(h int) {
	if h > 0 {
		c.surfaceHeight = h
	}
}

// Rotate queues a drag of dx, dy pixels.
func (c *OrbitControls) Rotate(dx, dy float64) {
	k := 2 * math.Pi / float64(c.surfaceHeight) * c.RotateSpeed
	c.theta.Velocity -= c.impulse(dx * k)
	c.phi.Velocity -= c.impulse(dy * k)
}

// impulse converts a total angle into the first-frame velocity whose
// damped decay sums to about that angle.
func (c *OrbitControls) impulse(angle float64) float64 {
	if !c.EnableDamping {
		return angle
	}
	return angle * springFrequency / (2 * float64(c.fps))
}

// Dolly moves toward the target for positive steps and away for negative.
func (c *OrbitControls) Dolly(steps float64) {
	c.scale *= math.Pow(zoomBase, steps*c.ZoomSpeed)
}

// Update applies pending motion, writes the camera and reports whether the
// camera moved.
func (c *OrbitControls) Update() bool {
	s := math3d.SphericalFromVec3(c.position.Sub(c.Target))
	s.Theta += c.theta.step(c.EnableDamping)
	s.Phi += c.phi.step(c.EnableDamping)
	s = s.MakeSafe()
	s.Radius = math.Max(c.MinDistance, math.Min(c.MaxDistance, s.Radius*c.scale))
	c.scale = 1

	next := c.Target.Add(s.Vec3())
	moved := !next.ApproxEqual(c.position, restEpsilon)
	c.position = next

	c.cam.SetPosition(c.position)
	c.cam.LookAt(c.Target)
	return moved
}

// Position returns the current camera position.
func (c *OrbitControls) Position() math3d.Vec3 {
	return c.position
}

// Distance returns the current distance to the target.
func (c *OrbitControls) Distance() float64 {
	return c.position.Distance(c.Target)
}

// Moving reports whether inertia is still turning the camera.
func (c *OrbitControls) Moving() bool {
	return c.theta.Velocity != 0 || c.phi.Velocity != 0
}

// Stop cancels any remaining inertia.
func (c *OrbitControls) Stop() {
	c.theta = newAxis(c.fps)
	c.phi = newAxis(c.fps)
}
