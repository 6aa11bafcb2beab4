package math3d

import (
	"math"
	"testing"
)

func TestSphericalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Vec3
	}{
		{"diagonal", V3(2, 2, 2)},
		{"below", V3(1, -3, 0.5)},
		{"axis z", V3(0, 0, 4)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SphericalFromVec3(tc.v).Vec3()
			if !got.ApproxEqual(tc.v, 1e-9) {
				t.Errorf("round trip = %v, want %v", got, tc.v)
			}
		})
	}
}

func TestSphericalMakeSafe(t *testing.T) {
	s := Spherical{Radius: 1, Phi: 0}.MakeSafe()
	if s.Phi <= 0 {
		t.Errorf("phi = %v, want > 0", s.Phi)
	}
	s = Spherical{Radius: 1, Phi: math.Pi}.MakeSafe()
	if s.Phi >= math.Pi {
		t.Errorf("phi = %v, want < pi", s.Phi)
	}
}

func TestFromQuatMatchesRotateY(t *testing.T) {
	angle := 0.7
	q := FromQuat(0, math.Sin(angle/2), 0, math.Cos(angle/2))
	r := RotateY(angle)
	for i := range q {
		if math.Abs(q[i]-r[i]) > 1e-9 {
			t.Fatalf("element %d = %v, want %v", i, q[i], r[i])
		}
	}
}

func TestNormalMatrixUndoesNonUniformScale(t *testing.T) {
	m := Scale(V3(2, 1, 1))
	// A plane tilted 45 degrees: normal (1,1,0) becomes (0.5,1,0) after the
	// inverse transpose, which stays perpendicular to the scaled surface.
	n := m.NormalMatrix().MulVec3Dir(V3(1, 1, 0))
	tangent := m.MulVec3Dir(V3(1, -1, 0))
	if d := n.Dot(tangent); math.Abs(d) > 1e-9 {
		t.Errorf("normal not perpendicular to tangent, dot = %v", d)
	}
}

func TestVec3Clamp(t *testing.T) {
	got := V3(-7, 2, 9).Clamp(-5, 5)
	want := V3(-5, 2, 5)
	if got != want {
		t.Errorf("Clamp = %v, want %v", got, want)
	}
}

func TestComposeOrder(t *testing.T) {
	m := Compose(V3(1, 0, 0), RotateZ(math.Pi/2), V3(2, 2, 2))
	// Scale first (1,0,0)->(2,0,0), rotate -> (0,2,0), translate -> (1,2,0).
	got := m.MulVec3(V3(1, 0, 0))
	if !got.ApproxEqual(V3(1, 2, 0), 1e-9) {
		t.Errorf("Compose point = %v, want (1, 2, 0)", got)
	}
}

func TestVec3Mul(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want Vec3
	}{
		{"componentwise", V3(1, 2, 3), V3(4, 5, 6), V3(4, 10, 18)},
		{"tint", V3(0.5, 0.5, 0.5), V3(1, 0, 0.2), V3(0.5, 0, 0.1)},
		{"zero", V3(3, -2, 7), Zero3(), Zero3()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Mul(tc.b); !got.ApproxEqual(tc.want, 1e-12) {
				t.Errorf("%v.Mul(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
