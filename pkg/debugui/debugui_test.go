package debugui

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSliderSet(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 4, 4},
		{"snapped", 4.0004, 4},
		{"snapped up", 4.0006, 4.001},
		{"above max", 12, 10},
		{"below min", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v float64
			f := &Folder{Title: "Directional light"}
			s, err := f.Add("Intensity", &v, 0, 10, 0.001)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			got := s.Set(tt.in)
			if math.Abs(got-tt.want) > 1e-9 || math.Abs(v-tt.want) > 1e-9 {
				t.Errorf("Set(%v) = %v (bound %v), want %v", tt.in, got, v, tt.want)
			}
		})
	}
}

func TestSliderNudgeAndOnChange(t *testing.T) {
	v := 1.0
	f := &Folder{Title: "Directional light"}
	s, _ := f.Add("Position X", &v, -5, 5, 0.001)

	var seen []float64
	s.OnChange = func(x float64) { seen = append(seen, x) }

	s.Nudge(5)
	s.Nudge(-10000)
	if len(seen) != 2 {
		t.Fatalf("OnChange called %d times, want 2", len(seen))
	}
	if math.Abs(seen[0]-1.005) > 1e-9 {
		t.Errorf("first nudge = %v, want 1.005", seen[0])
	}
	if seen[1] != -5 {
		t.Errorf("second nudge = %v, want clamped -5", seen[1])
	}
}

func TestInvalidBindings(t *testing.T) {
	var v float64
	tests := []struct {
		name         string
		target       *float64
		lo, hi, step float64
		want         error
	}{
		{"nil target", nil, 0, 1, 0.1, ErrNilTarget},
		{"inverted", &v, 1, 0, 0.1, ErrBadRange},
		{"nan bound", &v, math.NaN(), 1, 0.1, ErrBadRange},
		{"zero step", &v, 0, 1, 0, ErrBadStep},
		{"negative step", &v, 0, 1, -1, ErrBadStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Folder{Title: "lights"}
			s, err := f.Add("broken", tt.target, tt.lo, tt.hi, tt.step)
			var bindErr *InputBindingError
			if !errors.As(err, &bindErr) {
				t.Fatalf("expected *InputBindingError, got %v", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if s != nil || len(f.Sliders()) != 0 {
				t.Error("invalid binding should be skipped")
			}
		})
	}
}

func newLightPanel(t *testing.T) (*Panel, *float64, *float64) {
	t.Helper()
	var intensity, x float64 = 4, 1
	p := NewPanel("Debug")
	f := p.AddFolder("Directional light")
	if _, err := f.Add("Intensity", &intensity, 0, 10, 0.001); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Add("Position X", &x, -5, 5, 0.001); err != nil {
		t.Fatal(err)
	}
	return p, &intensity, &x
}

func TestPanelNavigation(t *testing.T) {
	p, intensity, x := newLightPanel(t)

	if p.Folders()[0].Open {
		t.Fatal("folders start closed")
	}
	if p.Selected() != nil || p.Nudge(1) {
		t.Error("header selected: nothing to nudge")
	}
	if got := len(p.Lines()); got != 2 {
		t.Errorf("closed panel renders %d lines, want 2", got)
	}

	p.ToggleFolder()
	p.Next()
	if s := p.Selected(); s == nil || s.Name != "Intensity" {
		t.Fatalf("expected Intensity selected, got %v", s)
	}
	p.Nudge(1000)
	if math.Abs(*intensity-5) > 1e-9 {
		t.Errorf("intensity = %v, want 5", *intensity)
	}

	p.Next()
	p.Nudge(-1)
	if math.Abs(*x-0.999) > 1e-9 {
		t.Errorf("x = %v, want 0.999", *x)
	}

	// Wraps back to the header
	p.Next()
	if p.Selected() != nil {
		t.Error("Next should wrap to the folder header")
	}
	p.Prev()
	if s := p.Selected(); s == nil || s.Name != "Position X" {
		t.Error("Prev should wrap to the last slider")
	}

	// Closing from a slider selects the header
	p.ToggleFolder()
	if p.Folders()[0].Open || p.Selected() != nil {
		t.Error("folder should close and select its header")
	}
}

func TestPanelLines(t *testing.T) {
	p, _, _ := newLightPanel(t)
	p.ToggleFolder()
	p.Next()

	lines := p.Lines()
	if len(lines) != 4 {
		t.Fatalf("open panel renders %d lines, want 4", len(lines))
	}
	if !lines[0].Header || lines[0].Text != "Debug" {
		t.Errorf("title row = %+v", lines[0])
	}
	if !strings.Contains(lines[2].Text, "Intensity") || !strings.Contains(lines[2].Text, "4.000") {
		t.Errorf("slider row = %q", lines[2].Text)
	}
	if !lines[2].Selected || lines[1].Selected {
		t.Error("selection marker on the wrong row")
	}

	p.Toggle()
	if p.Lines() != nil {
		t.Error("hidden panel should render nothing")
	}
}
