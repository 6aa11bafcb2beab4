package scene

import (
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/roomview/pkg/math3d"
)

func TestDirectionalLightSetters(t *testing.T) {
	tests := []struct {
		name      string
		intensity float64
		pos       math3d.Vec3
		wantI     float64
		wantPos   math3d.Vec3
	}{
		{"in range", 4, math3d.V3(1, 0.8, 0.3), 4, math3d.V3(1, 0.8, 0.3)},
		{"too bright", 12, math3d.V3(6, -7, 0), 10, math3d.V3(5, -5, 0)},
		{"negative", -1, math3d.V3(0, 0, -5), 0, math3d.V3(0, 0, -5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewDirectionalLight(math3d.V3(1, 1, 1), 1)
			l.SetIntensity(tt.intensity)
			l.SetPosition(tt.pos)
			if l.Intensity != tt.wantI {
				t.Errorf("Intensity = %f, want %f", l.Intensity, tt.wantI)
			}
			if l.Position != tt.wantPos {
				t.Errorf("Position = %v, want %v", l.Position, tt.wantPos)
			}
		})
	}
}

func TestDirectionalLightNaNIgnored(t *testing.T) {
	l := NewDirectionalLight(math3d.V3(1, 1, 1), 4)
	l.SetIntensity(math.NaN())
	l.SetPosition(math3d.V3(math.NaN(), 0, 0))
	if l.Intensity != 4 || l.Position != math3d.V3(0, 1, 0) {
		t.Errorf("NaN changed the light: %+v", l)
	}
}

func TestDirectionalLightDirection(t *testing.T) {
	l := NewDirectionalLight(math3d.V3(1, 1, 1), 4)
	l.Position = math3d.V3(0, 3, 4)
	if got := l.Direction(); !got.ApproxEqual(math3d.V3(0, 0.6, 0.8), 1e-9) {
		t.Errorf("Direction() = %v", got)
	}

	l.Position = l.Target
	if got := l.Direction(); got != math3d.Up() {
		t.Errorf("degenerate Direction() = %v, want up", got)
	}
}

func TestShadowViewLooksAtTarget(t *testing.T) {
	l := NewDirectionalLight(math3d.V3(1, 1, 1), 4)
	l.Position = math3d.V3(1, 0.8, 0.3)
	view, proj := l.ShadowView()

	clip := proj.Mul(view).MulVec4(math3d.V4FromV3(l.Target, 1)).PerspectiveDivide()
	if math.Abs(clip.X) > 1e-9 || math.Abs(clip.Y) > 1e-9 {
		t.Errorf("target should project to the centre, got %v", clip)
	}
	if clip.Z <= -1 || clip.Z >= 1 {
		t.Errorf("target depth %f outside the shadow range", clip.Z)
	}
}

func TestAmbientRadiance(t *testing.T) {
	a := NewAmbientLight(math3d.V3(1, 1, 1), 2.4)
	if got := a.Radiance(); !got.ApproxEqual(math3d.V3(2.4, 2.4, 2.4), 1e-12) {
		t.Errorf("Radiance() = %v", got)
	}
}

func TestHelperFollowsLight(t *testing.T) {
	l := NewDirectionalLight(math3d.V3(1, 1, 1), 4)
	l.Position = math3d.V3(1, 0.8, 0.3)
	h := NewDirectionalLightHelper(l, 0.2, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	check := func() {
		t.Helper()
		segs := h.Segments()
		if len(segs) != 5 {
			t.Fatalf("expected 5 segments, got %d", len(segs))
		}
		line := segs[4]
		if line.A != l.Position || line.B != l.Target {
			t.Errorf("target line %v -> %v, want %v -> %v", line.A, line.B, l.Position, l.Target)
		}
		dir := l.Direction()
		for i, s := range segs[:4] {
			edge := s.B.Sub(s.A)
			if math.Abs(edge.Len()-0.4) > 1e-9 {
				t.Errorf("edge %d length %f, want 0.4", i, edge.Len())
			}
			if math.Abs(edge.Dot(dir)) > 1e-9 {
				t.Errorf("edge %d not perpendicular to the light direction", i)
			}
		}
	}
	check()

	l.SetPosition(math3d.V3(-2, 3, 1))
	h.Update()
	check()
}
