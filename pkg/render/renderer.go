package render

import (
	"errors"
	"fmt"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
	"github.com/taigrr/roomview/pkg/scene"
)

// ErrEmptySurface is wrapped by SurfaceInitError when the drawing surface
// has no pixels.
var ErrEmptySurface = errors.New("render: surface has no pixels")

// SurfaceInitError reports that a drawing surface could not be used.
type SurfaceInitError struct {
	Width, Height int
	Err           error
}

func (e *SurfaceInitError) Error() string {
	return fmt.Sprintf("render: cannot use %dx%d surface: %v", e.Width, e.Height, e.Err)
}

func (e *SurfaceInitError) Unwrap() error {
	return e.Err
}

// Stats describes the last rendered frame.
type Stats struct {
	Meshes     int  // Mesh nodes visited
	Drawn      int  // Meshes that passed frustum culling
	Triangles  int  // Triangles submitted to the rasterizer
	ShadowPass bool // Whether the shadow map was re-rendered
}

// drawItem is a mesh with its resolved world transform.
type drawItem struct {
	mesh          *models.Mesh
	world         math3d.Mat4
	castShadow    bool
	receiveShadow bool
}

// Renderer draws a scene graph from a camera into its surface.
type Renderer struct {
	Surface        *Framebuffer
	ShadowsEnabled bool
	Stats          Stats

	raster   *Rasterizer
	shadow   *ShadowMap
	textures *TextureCache

	// Per-frame scratch
	items    []drawItem
	ambient  math3d.Vec3
	lights   []*scene.DirectionalLight
	helpers  []*scene.DirectionalLightHelper
	lighting Lighting
}

// NewRenderer creates a renderer with an empty surface. Call SetSize
// before rendering.
func NewRenderer(shadowMapSize int) *Renderer {
	fb := NewFramebuffer(0, 0)
	return &Renderer{
		Surface:        fb,
		ShadowsEnabled: true,
		raster:         NewRasterizer(nil, fb),
		shadow:         NewShadowMap(shadowMapSize),
		textures:       NewTextureCache(),
	}
}

// SetSize resizes the surface in physical pixels.
func (r *Renderer) SetSize(width, height int) {
	r.Surface.Resize(max(0, width), max(0, height))
	r.raster.Resize()
}

// ShadowMap returns the shadow map used for the casting light.
func (r *Renderer) ShadowMap() *ShadowMap {
	return r.shadow
}

// Render draws s as seen by cam. It returns a *SurfaceInitError when the
// surface is empty.
func (r *Renderer) Render(s *scene.Scene, cam *Camera) error {
	if s == nil || cam == nil {
		return errors.New("render: nil scene or camera")
	}
	if r.Surface.Empty() {
		return &SurfaceInitError{Width: r.Surface.Width, Height: r.Surface.Height, Err: ErrEmptySurface}
	}
	r.Stats = Stats{}

	r.items = r.items[:0]
	r.lights = r.lights[:0]
	r.helpers = r.helpers[:0]
	r.ambient = math3d.Zero3()
	r.collect(s.Root, math3d.Identity())

	r.lighting = Lighting{Ambient: r.ambient, Eye: cam.Position, Directional: r.lighting.Directional[:0]}
	shadowed := false
	for _, l := range r.lights {
		dl := DirectionalLighting{Direction: l.Direction(), Radiance: l.Radiance()}
		// One shadow map, used by the first casting light
		if l.CastShadow && r.ShadowsEnabled && !shadowed {
			r.renderShadow(l)
			dl.Shadow = r.shadow
			shadowed = true
		}
		r.lighting.Directional = append(r.lighting.Directional, dl)
	}

	r.Surface.Clear(s.Background)
	r.raster.SetCamera(cam)
	r.raster.ClearDepth()
	r.raster.ResetCullingStats()
	for i := range r.items {
		it := &r.items[i]
		r.raster.DrawMesh(it.mesh, it.world, it.receiveShadow, &r.lighting, r.textures)
	}
	r.Stats.Meshes = r.raster.CullingStats.MeshesTested
	r.Stats.Drawn = r.raster.CullingStats.MeshesDrawn
	r.Stats.Triangles = r.raster.CullingStats.Triangles

	for _, h := range r.helpers {
		for _, seg := range h.Segments() {
			r.raster.DrawLine3D(seg.A, seg.B, h.Color)
		}
	}
	return nil
}

// collect flattens the visible part of the graph into draw lists.
func (r *Renderer) collect(n *scene.Node, parent math3d.Mat4) {
	if !n.Visible {
		return
	}
	world := parent.Mul(n.LocalMatrix())
	if n.Mesh != nil && n.Mesh.TriangleCount() > 0 {
		r.items = append(r.items, drawItem{
			mesh:          n.Mesh,
			world:         world,
			castShadow:    n.CastShadow,
			receiveShadow: n.ReceiveShadow,
		})
	}
	switch l := n.Light.(type) {
	case *scene.AmbientLight:
		r.ambient = r.ambient.Add(l.Radiance())
	case *scene.DirectionalLight:
		r.lights = append(r.lights, l)
	}
	if n.Helper != nil {
		r.helpers = append(r.helpers, n.Helper)
	}
	for _, c := range n.Children() {
		r.collect(c, world)
	}
}

// renderShadow draws every caster into the shadow map unless nothing that
// affects it changed since the last frame.
func (r *Renderer) renderShadow(l *scene.DirectionalLight) {
	var sum float64
	tris := 0
	for i := range r.items {
		it := &r.items[i]
		if !it.castShadow {
			continue
		}
		for j, v := range it.world {
			sum += v * float64(i*16+j+1)
		}
		tris += it.mesh.TriangleCount()
	}
	if !r.shadow.begin(l, sum, tris) {
		return
	}
	r.Stats.ShadowPass = true

	for i := range r.items {
		it := &r.items[i]
		if !it.castShadow {
			continue
		}
		for f := range it.mesh.TriangleCount() {
			face := it.mesh.GetFace(f)
			a, _, _ := it.mesh.GetVertex(face[0])
			b, _, _ := it.mesh.GetVertex(face[1])
			c, _, _ := it.mesh.GetVertex(face[2])
			r.shadow.drawTriangle(it.world.MulVec3(a), it.world.MulVec3(b), it.world.MulVec3(c))
		}
	}
}
