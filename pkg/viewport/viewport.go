// Package viewport tracks the logical display size and the pixel ratio of
// the drawing surface.
package viewport

import (
	"errors"
	"fmt"
	"math"
)

// MaxPixelRatio bounds the supersampling factor on high-density displays.
const MaxPixelRatio = 2.0

// ErrInvalidSize is returned when a width or height is not positive.
var ErrInvalidSize = errors.New("viewport: width and height must be positive")

// Viewport is the logical display area. It is a value type; Resize replaces
// the whole state at once.
type Viewport struct {
	Width      int
	Height     int
	PixelRatio float64
}

// New creates a viewport for the given logical size and device pixel ratio.
func New(width, height int, deviceRatio float64) (Viewport, error) {
	var v Viewport
	if err := v.Resize(width, height, deviceRatio); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// Resize updates the size and pixel ratio. On error the viewport is left
// unchanged.
func (v *Viewport) Resize(width, height int, deviceRatio float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, width, height)
	}
	*v = Viewport{
		Width:      width,
		Height:     height,
		PixelRatio: ClampPixelRatio(deviceRatio),
	}
	return nil
}

// Aspect returns width / height.
func (v Viewport) Aspect() float64 {
	if v.Height == 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

// SurfaceSize returns the drawing surface dimensions in physical pixels.
func (v Viewport) SurfaceSize() (width, height int) {
	ratio := v.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	width = max(1, int(math.Round(float64(v.Width)*ratio)))
	height = max(1, int(math.Round(float64(v.Height)*ratio)))
	return width, height
}

// ClampPixelRatio returns min(deviceRatio, MaxPixelRatio). Ratios that are
// zero, negative or NaN fall back to 1.
func ClampPixelRatio(deviceRatio float64) float64 {
	if math.IsNaN(deviceRatio) || deviceRatio <= 0 {
		return 1
	}
	return math.Min(deviceRatio, MaxPixelRatio)
}
