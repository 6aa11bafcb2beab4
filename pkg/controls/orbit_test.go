package controls

import (
	"math"
	"testing"

	"github.com/taigrr/roomview/pkg/math3d"
)

type fakeCamera struct {
	pos, target math3d.Vec3
	updates     int
}

func (f *fakeCamera) SetPosition(p math3d.Vec3) { f.pos = p; f.updates++ }
func (f *fakeCamera) LookAt(t math3d.Vec3)      { f.target = t }

func newTestControls(damping bool) (*OrbitControls, *fakeCamera) {
	cam := &fakeCamera{}
	c := NewOrbitControls(cam, math3d.V3(2, 2, 2), math3d.V3(0, 0.75, 0), 60)
	c.EnableDamping = damping
	c.SetSurfaceHeight(600)
	return c, cam
}

func azimuth(c *OrbitControls) float64 {
	return math3d.SphericalFromVec3(c.Position().Sub(c.Target)).Theta
}

func TestNewAppliesCamera(t *testing.T) {
	c, cam := newTestControls(true)
	if cam.pos != c.Position() || cam.target != math3d.V3(0, 0.75, 0) {
		t.Errorf("camera not initialised: %+v", cam)
	}
	if !cam.pos.ApproxEqual(math3d.V3(2, 2, 2), 1e-9) {
		t.Errorf("initial position moved to %v", cam.pos)
	}
}

func TestRotateWithoutDamping(t *testing.T) {
	c, _ := newTestControls(false)
	before := azimuth(c)

	// A drag of a sixth of the height turns by 60 degrees
	c.Rotate(-100, 0)
	c.Update()
	got := azimuth(c) - before
	if math.Abs(got-math.Pi/3) > 1e-9 {
		t.Errorf("azimuth changed by %f, want %f", got, math.Pi/3)
	}

	after := c.Position()
	if c.Update() {
		t.Error("camera kept moving without damping")
	}
	if !c.Position().ApproxEqual(after, 1e-9) || c.Moving() {
		t.Error("velocity should be zero after one step")
	}
}

func TestRotateWithDampingCoasts(t *testing.T) {
	c, _ := newTestControls(true)
	before := azimuth(c)

	c.Rotate(-50, 0)
	c.Update()
	first := azimuth(c) - before
	if first <= 0 || first >= math.Pi/6 {
		t.Errorf("first damped step %f should be a fraction of the drag", first)
	}
	if !c.Moving() {
		t.Fatal("damped controls should keep moving")
	}

	for range 600 {
		c.Update()
	}
	if c.Moving() {
		t.Error("inertia should settle")
	}
	total := azimuth(c) - before
	if math.Abs(total-math.Pi/6) > 0.05*math.Pi/6 {
		t.Errorf("total rotation %f, want about %f", total, math.Pi/6)
	}
}

func TestPolarAngleStaysSafe(t *testing.T) {
	c, cam := newTestControls(false)
	c.Rotate(0, 5000)
	c.Update()

	s := math3d.SphericalFromVec3(c.Position().Sub(c.Target))
	if s.Phi <= 0 || s.Phi >= math.Pi {
		t.Errorf("phi %f left (0, pi)", s.Phi)
	}
	if math.IsNaN(cam.pos.X) {
		t.Error("camera position is NaN")
	}
}

func TestDollyClamp(t *testing.T) {
	tests := []struct {
		name  string
		steps float64
		want  float64
	}{
		{"far in", 1000, 0.5},
		{"far out", -1000, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestControls(false)
			c.Dolly(tt.steps)
			c.Update()
			if math.Abs(c.Distance()-tt.want) > 1e-9 {
				t.Errorf("Distance() = %f, want %f", c.Distance(), tt.want)
			}
		})
	}
}

func TestDollyStep(t *testing.T) {
	c, _ := newTestControls(true)
	start := c.Distance()
	c.Dolly(1)
	c.Update()
	if math.Abs(c.Distance()-start*0.95) > 1e-9 {
		t.Errorf("one step: %f, want %f", c.Distance(), start*0.95)
	}
}

func BenchmarkUpdate(b *testing.B) {
	c, _ := newTestControls(true)
	for b.Loop() {
		c.Rotate(1, 0)
		c.Update()
	}
}
