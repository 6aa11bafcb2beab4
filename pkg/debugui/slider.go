// Package debugui implements a small tweak panel: folders of numeric
// sliders bound to live values, navigable from the keyboard and drawn as
// text rows by any host.
package debugui

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrNilTarget = errors.New("nil target")
	ErrBadRange  = errors.New("invalid range")
	ErrBadStep   = errors.New("step must be positive")
)

// InputBindingError reports a slider that could not be bound. The panel
// keeps working without it.
type InputBindingError struct {
	Folder string
	Name   string
	Err    error
}

func (e *InputBindingError) Error() string {
	return fmt.Sprintf("bind %s/%s: %v", e.Folder, e.Name, e.Err)
}

func (e *InputBindingError) Unwrap() error {
	return e.Err
}

// Slider binds a float64 to a bounded, stepped range.
type Slider struct {
	Name     string
	Min, Max float64
	Step     float64
	// OnChange runs after every Set with the applied value.
	OnChange func(v float64)

	target *float64
}

func validate(target *float64, lo, hi, step float64) error {
	switch {
	case target == nil:
		return ErrNilTarget
	case math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo > hi:
		return fmt.Errorf("%w [%v, %v]", ErrBadRange, lo, hi)
	case !(step > 0) || math.IsInf(step, 0):
		return fmt.Errorf("%w, got %v", ErrBadStep, step)
	}
	return nil
}

// Set clamps v into [Min, Max], snaps it to the step grid starting at Min
// and writes it through. It returns the applied value.
func (s *Slider) Set(v float64) float64 {
	if math.IsNaN(v) {
		return *s.target
	}
	v = math.Max(s.Min, math.Min(s.Max, v))
	steps := math.Round((v - s.Min) / s.Step)
	v = s.Min + steps*s.Step
	// Snapping can land a hair outside the range
	v = math.Max(s.Min, math.Min(s.Max, v))
	// Drop binary noise below the display precision
	p := math.Pow(10, float64(s.decimals()+3))
	v = math.Round(v*p) / p

	*s.target = v
	if s.OnChange != nil {
		s.OnChange(v)
	}
	return v
}

// Nudge moves the value by n steps.
func (s *Slider) Nudge(n int) float64 {
	return s.Set(*s.target + float64(n)*s.Step)
}

// Fraction returns the position of the value inside the range, 0..1.
func (s *Slider) Fraction() float64 {
	if s.Max == s.Min {
		return 1
	}
	return (*s.target - s.Min) / (s.Max - s.Min)
}

func (s *Slider) decimals() int {
	d := int(math.Ceil(-math.Log10(s.Step)))
	return max(d, 0)
}

// Format renders "name  [#####-----]  value" with width characters of bar.
func (s *Slider) Format(nameWidth, barWidth int) string {
	filled := int(math.Round(s.Fraction() * float64(barWidth)))
	filled = max(0, min(barWidth, filled))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%-*s %s %.*f", nameWidth, s.Name, bar, s.decimals(), *s.target)
}
