package render

import (
	"math"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
)

// Lighting is the light environment of one frame.
type Lighting struct {
	Ambient     math3d.Vec3 // Summed ambient radiance
	Directional []DirectionalLighting
	Eye         math3d.Vec3 // Camera position, for specular
}

// DirectionalLighting is one directional light resolved for shading.
type DirectionalLighting struct {
	Direction math3d.Vec3 // Unit vector toward the light
	Radiance  math3d.Vec3
	Shadow    *ShadowMap // nil when the light casts no shadow
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
	Triangles    int // Triangles submitted after culling
}

// Rasterizer draws shaded triangles into a framebuffer with a z-buffer.
// Front faces wind counter-clockwise.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64    // Depth buffer (1D array, row-major)
	frustum                Frustum      // Cached frustum planes
	frustumDirty           bool         // Whether frustum needs recalculation
	CullingStats           CullingStats // Statistics for debugging/benchmarking
	DisableBackfaceCulling bool         // If true, render both sides of triangles

	verts    []clipVertex // Per-mesh transformed vertices
	surfaces []surface    // Per-mesh resolved materials
}

// clipVertex is a vertex after the model and view-projection transforms.
type clipVertex struct {
	clip   math3d.Vec4
	world  math3d.Vec3
	normal math3d.Vec3
	uv     math3d.Vec2
}

// surface is a material resolved for shading.
type surface struct {
	base          math3d.Vec3
	tex           *Texture
	metallic      float64
	shininess     float64
	doubleSided   bool
	receiveShadow bool
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
	r.Resize()
	return r
}

// SetCamera switches the camera used for projection.
func (r *Rasterizer) SetCamera(c *Camera) {
	r.camera = c
	r.frustumDirty = true
}

// Resize resizes the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	n := r.fb.Width * r.fb.Height
	if cap(r.zbuffer) >= n {
		r.zbuffer = r.zbuffer[:n]
		return
	}
	r.zbuffer = make([]float64, n)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Frustum returns the current frustum (updating if needed).
func (r *Rasterizer) Frustum() Frustum {
	if r.frustumDirty {
		r.frustum = r.camera.Frustum()
		r.frustumDirty = false
	}
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// DrawMesh renders mesh with the world transform. It returns false when
// the mesh was frustum culled.
func (r *Rasterizer) DrawMesh(mesh *models.Mesh, world math3d.Mat4, receiveShadow bool, light *Lighting, textures *TextureCache) bool {
	r.CullingStats.MeshesTested++
	bounds := AABB{Min: mesh.BoundsMin, Max: mesh.BoundsMax}.Transform(world)
	if !r.Frustum().IntersectAABB(bounds) {
		r.CullingStats.MeshesCulled++
		return false
	}
	r.CullingStats.MeshesDrawn++
	r.CullingStats.Triangles += mesh.TriangleCount()

	viewProj := r.camera.ViewProjectionMatrix()
	normalMat := world.NormalMatrix()

	r.verts = r.verts[:0]
	for i := range mesh.VertexCount() {
		pos, n, uv := mesh.GetVertex(i)
		wp := world.MulVec3(pos)
		r.verts = append(r.verts, clipVertex{
			clip:   viewProj.MulVec4(math3d.V4FromV3(wp, 1)),
			world:  wp,
			normal: normalMat.MulVec3Dir(n),
			uv:     uv,
		})
	}

	// Slot 0 is the default material, slot i+1 is mesh material i
	r.surfaces = r.surfaces[:0]
	r.surfaces = append(r.surfaces, resolveSurface(models.DefaultMaterial(), receiveShadow, textures))
	for i := range mesh.MaterialCount() {
		r.surfaces = append(r.surfaces, resolveSurface(*mesh.GetMaterial(i), receiveShadow, textures))
	}

	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		surf := &r.surfaces[0]
		if m := mesh.GetFaceMaterial(i); m >= 0 && m < mesh.MaterialCount() {
			surf = &r.surfaces[m+1]
		}
		r.drawTriangle([3]clipVertex{r.verts[f[0]], r.verts[f[1]], r.verts[f[2]]}, surf, light)
	}
	return true
}

func resolveSurface(m models.Material, receiveShadow bool, textures *TextureCache) surface {
	s := surface{
		base:          math3d.V3(m.BaseColor[0], m.BaseColor[1], m.BaseColor[2]),
		metallic:      math.Max(0, math.Min(1, m.Metallic)),
		doubleSided:   m.DoubleSided,
		receiveShadow: receiveShadow,
	}
	// Blinn-Phong exponent equivalent to a GGX roughness
	alpha := math.Max(0.03, m.Roughness*m.Roughness)
	s.shininess = math.Min(2048, 2/(alpha*alpha)-2)
	if m.HasTexture && textures != nil {
		s.tex = textures.Get(m.BaseMap)
	}
	return s
}

// drawTriangle clips against the near plane and rasterizes the pieces.
func (r *Rasterizer) drawTriangle(v [3]clipVertex, surf *surface, light *Lighting) {
	var d [3]float64
	inside := 0
	for i := range v {
		d[i] = v[i].clip.Z + v[i].clip.W
		if d[i] >= 0 {
			inside++
		}
	}
	switch inside {
	case 0:
		return
	case 3:
		r.rasterize(v, surf, light)
		return
	}

	var poly [4]clipVertex
	n := 0
	for i := range 3 {
		j := (i + 1) % 3
		if d[i] >= 0 {
			poly[n] = v[i]
			n++
		}
		if (d[i] >= 0) != (d[j] >= 0) {
			poly[n] = lerpVertex(v[i], v[j], d[i]/(d[i]-d[j]))
			n++
		}
	}
	for i := 1; i+1 < n; i++ {
		r.rasterize([3]clipVertex{poly[0], poly[i], poly[i+1]}, surf, light)
	}
}

func lerpVertex(a, b clipVertex, t float64) clipVertex {
	return clipVertex{
		clip: math3d.V4(
			a.clip.X+(b.clip.X-a.clip.X)*t,
			a.clip.Y+(b.clip.Y-a.clip.Y)*t,
			a.clip.Z+(b.clip.Z-a.clip.Z)*t,
			a.clip.W+(b.clip.W-a.clip.W)*t,
		),
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
		uv:     a.uv.Lerp(b.uv, t),
	}
}

// rasterize fills one clipped triangle using edge functions stepped
// incrementally across each row.
func (r *Rasterizer) rasterize(v [3]clipVertex, surf *surface, light *Lighting) {
	w, h := float64(r.Width()), float64(r.Height())
	var sx, sy, sz, invW [3]float64
	for i := range 3 {
		if v[i].clip.W <= 0 {
			return
		}
		invW[i] = 1 / v[i].clip.W
		sx[i] = (v[i].clip.X*invW[i] + 1) * 0.5 * w
		sy[i] = (1 - v[i].clip.Y*invW[i]) * 0.5 * h // Y flipped
		sz[i] = v[i].clip.Z * invW[i]
	}

	area := (sx[1]-sx[0])*(sy[2]-sy[0]) - (sy[1]-sy[0])*(sx[2]-sx[0])
	if area == 0 {
		return
	}
	// Counter-clockwise in NDC is clockwise once Y points down
	front := area < 0
	if !front && !surf.doubleSided && !r.DisableBackfaceCulling {
		return
	}
	invArea := 1 / area

	minX := max(0, int(math.Floor(min(sx[0], sx[1], sx[2]))))
	maxX := min(r.Width()-1, int(math.Ceil(max(sx[0], sx[1], sx[2]))))
	minY := max(0, int(math.Floor(min(sy[0], sy[1], sy[2]))))
	maxY := min(r.Height()-1, int(math.Ceil(max(sy[0], sy[1], sy[2]))))
	if minX > maxX || minY > maxY {
		return
	}

	// e0 weights v0 (edge v1->v2), e1 weights v1 (edge v2->v0)
	a0, b0 := -(sy[2] - sy[1]), sx[2]-sx[1]
	a1, b1 := -(sy[0] - sy[2]), sx[0]-sx[2]

	startX := float64(minX) + 0.5
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		e0 := a0*(startX-sx[1]) + b0*(py-sy[1])
		e1 := a1*(startX-sx[2]) + b1*(py-sy[2])

		for x := minX; x <= maxX; x, e0, e1 = x+1, e0+a0, e1+a1 {
			l0 := e0 * invArea
			l1 := e1 * invArea
			l2 := 1 - l0 - l1
			if l0 < 0 || l1 < 0 || l2 < 0 {
				continue
			}

			z := l0*sz[0] + l1*sz[1] + l2*sz[2]
			idx := y*r.fb.Width + x
			if z < -1 || z > 1 || z >= r.zbuffer[idx] {
				continue
			}

			// Perspective-correct weights
			p0, p1, p2 := l0*invW[0], l1*invW[1], l2*invW[2]
			sum := p0 + p1 + p2
			if sum == 0 {
				continue
			}
			p0, p1, p2 = p0/sum, p1/sum, p2/sum

			world := v[0].world.Scale(p0).Add(v[1].world.Scale(p1)).Add(v[2].world.Scale(p2))
			normal := v[0].normal.Scale(p0).Add(v[1].normal.Scale(p1)).Add(v[2].normal.Scale(p2)).Normalize()
			if !front {
				normal = normal.Negate()
			}
			u := p0*v[0].uv.X + p1*v[1].uv.X + p2*v[2].uv.X
			vv := p0*v[0].uv.Y + p1*v[1].uv.Y + p2*v[2].uv.Y

			r.zbuffer[idx] = z
			r.fb.Pixels[idx] = encodeSRGB(shade(surf, light, world, normal, u, vv))
		}
	}
}

// shade evaluates Lambert diffuse plus a normalized Blinn-Phong lobe for
// every light. The result is linear RGB.
func shade(surf *surface, light *Lighting, world, n math3d.Vec3, u, v float64) math3d.Vec3 {
	base := surf.base
	if surf.tex != nil {
		base = base.Mul(surf.tex.Sample(u, v))
	}
	diffuse := base.Scale((1 - surf.metallic) / math.Pi)
	specColor := math3d.V3(0.04, 0.04, 0.04).Lerp(base, surf.metallic)

	out := light.Ambient.Mul(diffuse)
	view := light.Eye.Sub(world).Normalize()
	for i := range light.Directional {
		dl := &light.Directional[i]
		ndl := n.Dot(dl.Direction)
		if ndl <= 0 {
			continue
		}
		vis := 1.0
		if dl.Shadow != nil && surf.receiveShadow {
			vis = dl.Shadow.Sample(world, n)
			if vis == 0 {
				continue
			}
		}
		irradiance := dl.Radiance.Scale(ndl * vis)
		out = out.Add(irradiance.Mul(diffuse))

		half := dl.Direction.Add(view).Normalize()
		if ndh := n.Dot(half); ndh > 0 {
			lobe := (surf.shininess + 2) / (8 * math.Pi) * math.Pow(ndh, surf.shininess)
			out = out.Add(irradiance.Mul(specColor).Scale(lobe))
		}
	}
	return out
}

const srgbEncodeSize = 4096

// srgbEncodeLUT maps linear [0, 1] in srgbEncodeSize steps to 8-bit sRGB.
var srgbEncodeLUT = func() (t [srgbEncodeSize]uint8) {
	for i := range t {
		c := float64(i) / (srgbEncodeSize - 1)
		if c <= 0.0031308 {
			c *= 12.92
		} else {
			c = 1.055*math.Pow(c, 1/2.4) - 0.055
		}
		t[i] = uint8(math.Round(c * 255))
	}
	return t
}()

// encodeSRGB clamps a linear colour and encodes it for display.
func encodeSRGB(c math3d.Vec3) Color {
	enc := func(v float64) uint8 {
		if !(v > 0) {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return srgbEncodeLUT[int(v*(srgbEncodeSize-1)+0.5)]
	}
	return Color{R: enc(c.X), G: enc(c.Y), B: enc(c.Z), A: 255}
}

// DrawLine3D draws a world-space line on top of the image, clipped to the
// near plane.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	ca := viewProj.MulVec4(math3d.V4FromV3(a, 1))
	cb := viewProj.MulVec4(math3d.V4FromV3(b, 1))

	da, db := ca.Z+ca.W, cb.Z+cb.W
	if da < 0 && db < 0 {
		return
	}
	if da < 0 || db < 0 {
		t := da / (da - db)
		mid := math3d.V4(ca.X+(cb.X-ca.X)*t, ca.Y+(cb.Y-ca.Y)*t, ca.Z+(cb.Z-ca.Z)*t, ca.W+(cb.W-ca.W)*t)
		if da < 0 {
			ca = mid
		} else {
			cb = mid
		}
	}
	if ca.W <= 0 || cb.W <= 0 {
		return
	}

	toScreen := func(c math3d.Vec4) (int, int) {
		x := (c.X/c.W + 1) * 0.5 * float64(r.Width())
		y := (1 - c.Y/c.W) * 0.5 * float64(r.Height())
		return int(math.Floor(x)), int(math.Floor(y))
	}
	x0, y0 := toScreen(ca)
	x1, y1 := toScreen(cb)

	// Keep Bresenham bounded for nearly-degenerate projections
	const limit = 1 << 15
	if abs(x0) > limit || abs(y0) > limit || abs(x1) > limit || abs(y1) > limit {
		return
	}
	r.fb.DrawLine(x0, y0, x1, y1, color)
}
