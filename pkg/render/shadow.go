package render

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/scene"
)

const minShadowMapSize = 16

// ShadowMap is a square depth texture rendered from a directional light
// with an orthographic projection. Depths are stored in [0, 1].
type ShadowMap struct {
	Size       int
	Bias       float64
	NormalBias float64

	depth    []float32
	viewProj math3d.Mat4
	key      shadowKey
	valid    bool
}

// shadowKey identifies the inputs of the last shadow pass so unchanged
// frames can reuse it.
type shadowKey struct {
	viewProj math3d.Mat4
	casters  float64
	tris     int
}

// NewShadowMap allocates a size x size map, clamped to
// [16, scene.MaxShadowMapSize].
func NewShadowMap(size int) *ShadowMap {
	s := &ShadowMap{}
	s.Resize(size)
	return s
}

// ClampShadowMapSize limits a requested resolution to what the software
// shadow pass supports.
func ClampShadowMapSize(size int) int {
	return max(minShadowMapSize, min(scene.MaxShadowMapSize, size))
}

// Resize changes the resolution and invalidates the map.
func (s *ShadowMap) Resize(size int) {
	size = ClampShadowMapSize(size)
	if size == s.Size && s.depth != nil {
		return
	}
	s.Size = size
	s.depth = make([]float32, size*size)
	s.valid = false
}

// ViewProjection returns the light's view-projection of the last pass.
func (s *ShadowMap) ViewProjection() math3d.Mat4 {
	return s.viewProj
}

// begin prepares a pass for light. It returns false when the previous pass
// was rendered from identical inputs and can be kept.
func (s *ShadowMap) begin(light *scene.DirectionalLight, casters float64, tris int) bool {
	if light.Shadow.MapSize > 0 {
		s.Resize(light.Shadow.MapSize)
	}
	s.Bias = light.Shadow.Bias
	s.NormalBias = light.Shadow.NormalBias

	view, proj := light.ShadowView()
	key := shadowKey{viewProj: proj.Mul(view), casters: casters, tris: tris}
	if s.valid && key == s.key {
		return false
	}
	s.key = key
	s.viewProj = key.viewProj
	s.valid = true

	// Copy-doubling clear to "infinitely far"
	s.depth[0] = math32.Inf(1)
	for i := 1; i < len(s.depth); i *= 2 {
		copy(s.depth[i:], s.depth[:i])
	}
	return true
}

// project maps a world point to texel coordinates and [0, 1] depth.
func (s *ShadowMap) project(p math3d.Vec3) (x, y, z float64) {
	c := s.viewProj.MulVec4(math3d.V4FromV3(p, 1))
	size := float64(s.Size)
	return (c.X + 1) * 0.5 * size, (1 - c.Y) * 0.5 * size, (c.Z + 1) * 0.5
}

// drawTriangle writes the depth of a world-space triangle. Both faces are
// rendered.
func (s *ShadowMap) drawTriangle(a, b, c math3d.Vec3) {
	x0, y0, z0 := s.project(a)
	x1, y1, z1 := s.project(b)
	x2, y2, z2 := s.project(c)

	area := (x1-x0)*(y2-y0) - (y1-y0)*(x2-x0)
	if area == 0 {
		return
	}
	invArea := 1 / area

	minX := max(0, int(math.Floor(min(x0, x1, x2))))
	maxX := min(s.Size-1, int(math.Ceil(max(x0, x1, x2))))
	minY := max(0, int(math.Floor(min(y0, y1, y2))))
	maxY := min(s.Size-1, int(math.Ceil(max(y0, y1, y2))))

	for py := minY; py <= maxY; py++ {
		fy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			fx := float64(px) + 0.5
			b0 := ((x2-x1)*(fy-y1) - (y2-y1)*(fx-x1)) * invArea
			b1 := ((x0-x2)*(fy-y2) - (y0-y2)*(fx-x2)) * invArea
			b2 := 1 - b0 - b1
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			z := b0*z0 + b1*z1 + b2*z2
			if z < 0 || z > 1 {
				continue
			}
			i := py*s.Size + px
			s.depth[i] = math32.Min(s.depth[i], float32(z))
		}
	}
}

// Sample returns how lit a world point is, from 0 (fully shadowed) to 1,
// averaging a 3x3 texel neighbourhood. Points outside the map are lit.
func (s *ShadowMap) Sample(world, normal math3d.Vec3) float64 {
	if !s.valid {
		return 1
	}
	x, y, z := s.project(world.Add(normal.Scale(s.NormalBias)))
	if x < 0 || y < 0 || x >= float64(s.Size) || y >= float64(s.Size) || z > 1 {
		return 1
	}
	ref := float32(z - s.Bias)

	cx, cy := int(x), int(y)
	lit := 0
	for dy := -1; dy <= 1; dy++ {
		ty := max(0, min(s.Size-1, cy+dy))
		for dx := -1; dx <= 1; dx++ {
			tx := max(0, min(s.Size-1, cx+dx))
			if ref <= s.depth[ty*s.Size+tx] {
				lit++
			}
		}
	}
	return float64(lit) / 9
}

// Depth returns the stored depth at texel (x, y), +Inf when empty.
func (s *ShadowMap) Depth(x, y int) float32 {
	if x < 0 || y < 0 || x >= s.Size || y >= s.Size {
		return math32.Inf(1)
	}
	return s.depth[y*s.Size+x]
}
