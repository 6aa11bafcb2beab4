package render

import (
	"image"
	"image/draw"
	"math"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterBilinear FilterMode = iota // Bilinear interpolation (smooth)
	FilterNearest                    // Nearest-neighbor (pixelated)
)

// srgbLUT decodes 8-bit sRGB channels to linear.
var srgbLUT = func() (t [256]float64) {
	for i := range t {
		t[i] = models.SRGBToLinear(uint8(i))
	}
	return t
}()

// Texture holds an sRGB image for texture mapping.
type Texture struct {
	Width      int
	Height     int
	Pixels     []Color    // Row-major pixel data
	WrapU      WrapMode   // Horizontal wrap mode
	WrapV      WrapMode   // Vertical wrap mode
	FilterMode FilterMode // Sampling filter mode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// TextureFromImage creates a texture from an image.Image.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	tex := NewTexture(b.Dx(), b.Dy())
	for y := range tex.Height {
		for x := range tex.Width {
			i := rgba.PixOffset(x, y)
			tex.Pixels[y*tex.Width+x] = Color{R: rgba.Pix[i], G: rgba.Pix[i+1], B: rgba.Pix[i+2], A: rgba.Pix[i+3]}
		}
	}
	return tex
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y) with bounds checking.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample returns the linear RGB colour at UV (V=0 at the bottom).
func (t *Texture) Sample(u, v float64) math3d.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return math3d.V3(1, 1, 1)
	}
	u = wrapCoord(u, t.WrapU)
	v = wrapCoord(v, t.WrapV)

	// Flip V coordinate (image Y=0 at top, UV V=0 at bottom)
	v = 1.0 - v

	if t.FilterMode == FilterNearest {
		x := min(int(u*float64(t.Width)), t.Width-1)
		y := min(int(v*float64(t.Height)), t.Height-1)
		return decode(t.GetPixel(x, y))
	}
	return t.sampleBilinear(u, v)
}

// wrapCoord applies the wrap mode to a coordinate.
func wrapCoord(coord float64, mode WrapMode) float64 {
	switch mode {
	case WrapRepeat:
		coord = coord - math.Floor(coord) // fmod to [0,1)
	case WrapClamp:
		coord = math.Max(0, math.Min(1, coord))
	}
	return coord
}

// sampleBilinear blends the four nearest texels in linear space.
func (t *Texture) sampleBilinear(u, v float64) math3d.Vec3 {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixelCoord(x0+1, t.Width, t.WrapU)
	y1 := wrapPixelCoord(y0+1, t.Height, t.WrapV)
	x0 = wrapPixelCoord(x0, t.Width, t.WrapU)
	y0 = wrapPixelCoord(y0, t.Height, t.WrapV)

	top := decode(t.GetPixel(x0, y0)).Lerp(decode(t.GetPixel(x1, y0)), tx)
	bot := decode(t.GetPixel(x0, y1)).Lerp(decode(t.GetPixel(x1, y1)), tx)
	return top.Lerp(bot, ty)
}

// wrapPixelCoord wraps a pixel coordinate.
func wrapPixelCoord(x, size int, mode WrapMode) int {
	switch mode {
	case WrapRepeat:
		x = x % size
		if x < 0 {
			x += size
		}
	case WrapClamp:
		x = max(0, min(size-1, x))
	}
	return x
}

func decode(c Color) math3d.Vec3 {
	return math3d.V3(srgbLUT[c.R], srgbLUT[c.G], srgbLUT[c.B])
}

// TextureCache converts each material image once.
type TextureCache struct {
	textures map[image.Image]*Texture
}

// NewTextureCache creates an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{textures: make(map[image.Image]*Texture)}
}

// Get returns the texture for img, converting it on first use.
func (c *TextureCache) Get(img image.Image) *Texture {
	if img == nil {
		return nil
	}
	if t, ok := c.textures[img]; ok {
		return t
	}
	t := TextureFromImage(img)
	c.textures[img] = t
	return t
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	return len(c.textures)
}
