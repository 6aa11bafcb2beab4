package viewer

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"fortio.org/log"
	"github.com/taigrr/roomview/pkg/render"
	"github.com/taigrr/roomview/pkg/scene"
	"github.com/taigrr/roomview/pkg/viewport"
)

// DefaultModelPath is the room model loaded when no path is given.
const DefaultModelPath = "models/Room/room.gltf"

// ErrInvalidFPS is returned by Validate for a non-positive frame rate.
var ErrInvalidFPS = errors.New("viewer: fps must be positive")

// Config holds everything needed to build an App.
type Config struct {
	ModelPath     string
	Width, Height int     // Logical size
	PixelRatio    float64 // Device pixel ratio, clamped to viewport.MaxPixelRatio
	FPS           int
	ShadowMapSize int
	Damping       bool
	Background    color.RGBA

	// Test hooks. Nil means time.Now and the glTF loader.
	Now  func() time.Time
	Load scene.LoadFunc
}

// DefaultConfig returns the stock room viewer setup.
func DefaultConfig() Config {
	return Config{
		ModelPath:     DefaultModelPath,
		Width:         800,
		Height:        600,
		PixelRatio:    1,
		FPS:           60,
		ShadowMapSize: scene.DefaultShadowMapSize,
		Damping:       true,
		Background:    color.RGBA{R: 0, G: 0, B: 0, A: 255},
	}
}

// Validate rejects unusable values and normalises the rest. Shadow map
// sizes above scene.MaxShadowMapSize are clamped with a warning.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", viewport.ErrInvalidSize, c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidFPS, c.FPS)
	}
	c.PixelRatio = viewport.ClampPixelRatio(c.PixelRatio)

	switch {
	case c.ShadowMapSize <= 0:
		c.ShadowMapSize = scene.DefaultShadowMapSize
	case c.ShadowMapSize > scene.MaxShadowMapSize:
		log.Warnf("Shadow map size %d is too large for the software renderer, using %d",
			c.ShadowMapSize, scene.MaxShadowMapSize)
	}
	c.ShadowMapSize = render.ClampShadowMapSize(c.ShadowMapSize)
	return nil
}

// ParseColor accepts "#rrggbb" or "R,G,B".
func ParseColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); n != 3 || err != nil || len(s) != 7 {
			return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	if n, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); n != 3 || err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q (want #rrggbb or R,G,B)", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
