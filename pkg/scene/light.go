package scene

import (
	"math"

	"github.com/taigrr/roomview/pkg/math3d"
)

// Limits applied by the directional light setters.
const (
	MaxLightIntensity = 10.0
	MaxLightOffset    = 5.0
)

// Shadow-map defaults. The map is square; MaxShadowMapSize bounds memory
// use of the software shadow pass.
const (
	DefaultShadowMapSize = 2048
	MaxShadowMapSize     = 4096
)

// Light is the payload of a light node. Radiance is colour times intensity
// in linear RGB.
type Light interface {
	Radiance() math3d.Vec3
}

// AmbientLight lights every surface uniformly.
type AmbientLight struct {
	Color     math3d.Vec3
	Intensity float64
}

// NewAmbientLight creates an ambient light.
func NewAmbientLight(color math3d.Vec3, intensity float64) *AmbientLight {
	return &AmbientLight{Color: color, Intensity: intensity}
}

// Radiance implements Light.
func (l *AmbientLight) Radiance() math3d.Vec3 {
	return l.Color.Scale(l.Intensity)
}

// Shadow configures the shadow map rendered from a directional light.
type Shadow struct {
	MapSize    int     // Texels per side
	Bias       float64 // Constant depth bias
	NormalBias float64 // Offset along the surface normal, world units
	Near, Far  float64 // Orthographic depth range
	HalfExtent float64 // Orthographic half-width around the target
	Distance   float64 // Distance of the shadow eye from the target
}

// DefaultShadow covers the 10x10 floor from any light direction.
func DefaultShadow() Shadow {
	return Shadow{
		MapSize:    DefaultShadowMapSize,
		Bias:       0.001,
		NormalBias: 0.02,
		Near:       0.1,
		Far:        30,
		HalfExtent: 7.5,
		Distance:   12,
	}
}

// DirectionalLight is a light infinitely far away shining from Position
// toward Target. Position and Target are world space.
type DirectionalLight struct {
	Color      math3d.Vec3
	Intensity  float64
	Position   math3d.Vec3
	Target     math3d.Vec3
	CastShadow bool
	Shadow     Shadow
}

// NewDirectionalLight creates a light aimed at the origin.
func NewDirectionalLight(color math3d.Vec3, intensity float64) *DirectionalLight {
	return &DirectionalLight{
		Color:     color,
		Intensity: intensity,
		Position:  math3d.V3(0, 1, 0),
		Shadow:    DefaultShadow(),
	}
}

// Radiance implements Light.
func (l *DirectionalLight) Radiance() math3d.Vec3 {
	return l.Color.Scale(l.Intensity)
}

// Direction returns the unit vector from the target toward the light, the
// L vector of the lighting equation. A light sitting on its target shines
// straight down.
func (l *DirectionalLight) Direction() math3d.Vec3 {
	d := l.Position.Sub(l.Target)
	if d.LenSq() == 0 {
		return math3d.Up()
	}
	return d.Normalize()
}

// SetIntensity clamps into [0, MaxLightIntensity].
func (l *DirectionalLight) SetIntensity(v float64) {
	if math.IsNaN(v) {
		return
	}
	l.Intensity = math.Max(0, math.Min(MaxLightIntensity, v))
}

// SetPosition clamps each axis into [-MaxLightOffset, MaxLightOffset].
func (l *DirectionalLight) SetPosition(p math3d.Vec3) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
		return
	}
	l.Position = p.Clamp(-MaxLightOffset, MaxLightOffset)
}

// ShadowView returns the view and orthographic projection used to render
// and sample the shadow map.
func (l *DirectionalLight) ShadowView() (view, proj math3d.Mat4) {
	dir := l.Direction()
	eye := l.Target.Add(dir.Scale(l.Shadow.Distance))
	up := math3d.Up()
	if math.Abs(dir.Dot(up)) > 0.999 {
		up = math3d.V3(0, 0, -1)
	}
	s := l.Shadow.HalfExtent
	view = math3d.LookAt(eye, l.Target, up)
	proj = math3d.Orthographic(-s, s, -s, s, l.Shadow.Near, l.Shadow.Far)
	return view, proj
}
