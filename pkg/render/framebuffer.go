// Package render draws a scene graph with a software rasterizer: a shadow
// pass from the directional light, a shaded colour pass and helper lines,
// into a framebuffer that hosts blit to a terminal, a window or a PNG.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Framebuffer is a 2D array of RGBA pixels.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize changes the dimensions, reusing the pixel slice when it is large
// enough. Contents are undefined afterwards.
func (fb *Framebuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	fb.Width, fb.Height = width, height
	n := width * height
	if cap(fb.Pixels) >= n {
		fb.Pixels = fb.Pixels[:n]
		return
	}
	fb.Pixels = make([]color.RGBA, n)
}

// Empty reports whether the framebuffer has no pixels.
func (fb *Framebuffer) Empty() bool {
	return fb == nil || fb.Width <= 0 || fb.Height <= 0
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	// Copy-doubling fill
	fb.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage copies the framebuffer into a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	fb.copyTo(img)
	return img
}

func (fb *Framebuffer) copyTo(img *image.RGBA) {
	for y := 0; y < fb.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+fb.Width*4]
		for x, p := range fb.Pixels[y*fb.Width : (y+1)*fb.Width] {
			row[x*4+0] = p.R
			row[x*4+1] = p.G
			row[x*4+2] = p.B
			row[x*4+3] = p.A
		}
	}
}

// Downsample scales fb into dst, which keeps its own size. Shrinking uses
// an approximate bilinear filter that averages the supersampled pixels;
// equal sizes are a plain copy.
func (fb *Framebuffer) Downsample(dst *Framebuffer) {
	if fb.Empty() || dst.Empty() {
		return
	}
	if fb.Width == dst.Width && fb.Height == dst.Height {
		copy(dst.Pixels, fb.Pixels)
		return
	}

	src := fb.ToImage()
	out := image.NewRGBA(image.Rect(0, 0, dst.Width, dst.Height))
	var scaler draw.Interpolator = draw.ApproxBiLinear
	if dst.Width > fb.Width || dst.Height > fb.Height {
		scaler = draw.CatmullRom
	}
	scaler.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			i := out.PixOffset(x, y)
			dst.Pixels[y*dst.Width+x] = color.RGBA{R: out.Pix[i], G: out.Pix[i+1], B: out.Pix[i+2], A: out.Pix[i+3]}
		}
	}
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
