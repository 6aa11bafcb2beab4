package scene

import (
	"image/color"
	"math"

	"github.com/taigrr/roomview/pkg/math3d"
)

// Segment is a world-space line drawn by helpers.
type Segment struct {
	A, B math3d.Vec3
}

// DirectionalLightHelper visualises a directional light: a square around
// the light position facing the target, and a line to the target.
type DirectionalLightHelper struct {
	Light *DirectionalLight // not owned
	Size  float64           // half-width of the square
	Color color.RGBA

	segments [5]Segment
}

// NewDirectionalLightHelper creates a helper for light and computes its
// initial geometry.
func NewDirectionalLightHelper(light *DirectionalLight, size float64, c color.RGBA) *DirectionalLightHelper {
	h := &DirectionalLightHelper{Light: light, Size: size, Color: c}
	h.Update()
	return h
}

// Update re-reads the light. Call once per frame after light edits.
func (h *DirectionalLightHelper) Update() {
	if h.Light == nil {
		return
	}
	pos := h.Light.Position
	toTarget := h.Light.Target.Sub(pos)
	fwd := toTarget.Normalize()
	if toTarget.LenSq() == 0 {
		fwd = math3d.V3(0, -1, 0)
	}

	up := math3d.Up()
	if math.Abs(fwd.Dot(up)) > 0.999 {
		up = math3d.V3(0, 0, 1)
	}
	right := fwd.Cross(up).Normalize().Scale(h.Size)
	top := right.Cross(fwd).Normalize().Scale(h.Size)

	c0 := pos.Sub(right).Add(top)
	c1 := pos.Add(right).Add(top)
	c2 := pos.Add(right).Sub(top)
	c3 := pos.Sub(right).Sub(top)

	h.segments = [5]Segment{
		{c0, c1}, {c1, c2}, {c2, c3}, {c3, c0},
		{pos, h.Light.Target},
	}
}

// Segments returns the lines computed by the last Update.
func (h *DirectionalLightHelper) Segments() []Segment {
	return h.segments[:]
}
