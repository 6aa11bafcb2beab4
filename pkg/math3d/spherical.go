package math3d

import "math"

// sphericalEps keeps the polar angle away from the poles where the
// look-at basis degenerates.
const sphericalEps = 1e-6

// Spherical is a point in spherical coordinates around the +Y axis.
// Theta is the azimuth measured from +Z toward +X, Phi is the polar angle
// measured from +Y.
type Spherical struct {
	Radius float64
	Theta  float64
	Phi    float64
}

// SphericalFromVec3 converts a cartesian offset into spherical coordinates.
func SphericalFromVec3(v Vec3) Spherical {
	r := v.Len()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius: r,
		Theta:  math.Atan2(v.X, v.Z),
		Phi:    math.Acos(math.Max(-1, math.Min(1, v.Y/r))),
	}
}

// Vec3 converts back to a cartesian offset.
func (s Spherical) Vec3() Vec3 {
	sinPhi := math.Sin(s.Phi) * s.Radius
	return Vec3{
		X: sinPhi * math.Sin(s.Theta),
		Y: math.Cos(s.Phi) * s.Radius,
		Z: sinPhi * math.Cos(s.Theta),
	}
}

// MakeSafe clamps Phi into (0, π) exclusive.
func (s Spherical) MakeSafe() Spherical {
	s.Phi = math.Max(sphericalEps, math.Min(math.Pi-sphericalEps, s.Phi))
	return s
}
