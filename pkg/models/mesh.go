// Package models provides the mesh representation and the glTF loader used
// for the room model and the procedural floor.
package models

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/taigrr/roomview/pkg/math3d"
)

// Mesh represents a 3D mesh with vertices, faces, and materials.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Face represents a triangle face with vertex indices and material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material represents a metallic-roughness PBR material.
type Material struct {
	Name        string
	BaseColor   [4]float64  // Linear RGBA in 0-1 range
	Metallic    float64     // 0 = dielectric, 1 = metal
	Roughness   float64     // 0 = smooth, 1 = rough
	BaseMap     image.Image // Optional sRGB base color texture
	HasTexture  bool
	DoubleSided bool
}

// DefaultMaterial is assigned to primitives that reference no material.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		BaseColor: [4]float64{1, 1, 1, 1},
		Metallic:  0,
		Roughness: 1,
	}
}

// ColorMaterial creates an untextured material from an sRGB hex colour such
// as "#444444". The colour is stored linear. Invalid strings yield mid grey.
func ColorMaterial(name, hex string, metallic, roughness float64) Material {
	m := Material{Name: name, BaseColor: [4]float64{0.5, 0.5, 0.5, 1}, Metallic: metallic, Roughness: roughness}
	var r, g, b uint8
	if n, _ := fmt.Sscanf(strings.TrimPrefix(hex, "#"), "%02x%02x%02x", &r, &g, &b); n == 3 {
		m.BaseColor = [4]float64{SRGBToLinear(r), SRGBToLinear(g), SRGBToLinear(b), 1}
	}
	return m
}

// SRGBToLinear decodes one 8-bit sRGB channel.
func SRGBToLinear(c uint8) float64 {
	v := float64(c) / 255
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:      name,
		Vertices:  make([]MeshVertex, 0),
		Faces:     make([]Face, 0),
		BoundsMin: math3d.V3(0, 0, 0),
		BoundsMax: math3d.V3(0, 0, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// CalculateSmoothNormals computes averaged normals for smooth shading.
func (m *Mesh) CalculateSmoothNormals() {
	// Reset all normals
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	// Accumulate face normals per vertex
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		normal := edge1.Cross(edge2) // Don't normalize yet

		m.Vertices[f.V[0]].Normal = m.Vertices[f.V[0]].Normal.Add(normal)
		m.Vertices[f.V[1]].Normal = m.Vertices[f.V[1]].Normal.Add(normal)
		m.Vertices[f.V[2]].Normal = m.Vertices[f.V[2]].Normal.Add(normal)
	}

	// Normalize all accumulated normals
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// GetVertex returns the position, normal, and UV for vertex i.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetFace returns the vertex indices for face i.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetFaceMaterial returns the material index for face i.
// Returns -1 if no material assigned.
func (m *Mesh) GetFaceMaterial(i int) int {
	return m.Faces[i].Material
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int {
	return len(m.Materials)
}

// NewPlane builds a width x depth plane in the XY plane facing +Z, split
// into two counter-clockwise triangles. Rotate it by -90 degrees around X to
// lay it flat.
func NewPlane(name string, width, height float64, mat Material) *Mesh {
	hw, hh := width/2, height/2
	n := math3d.V3(0, 0, 1)
	m := NewMesh(name)
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(-hw, hh, 0), Normal: n, UV: math3d.V2(0, 1)},
		{Position: math3d.V3(hw, hh, 0), Normal: n, UV: math3d.V2(1, 1)},
		{Position: math3d.V3(-hw, -hh, 0), Normal: n, UV: math3d.V2(0, 0)},
		{Position: math3d.V3(hw, -hh, 0), Normal: n, UV: math3d.V2(1, 0)},
	}
	m.Faces = []Face{
		{V: [3]int{0, 2, 1}, Material: 0},
		{V: [3]int{2, 3, 1}, Material: 0},
	}
	m.Materials = []Material{mat}
	m.CalculateBounds()
	return m
}
