package models

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"fortio.org/log"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/roomview/pkg/math3d"
	"golang.org/x/sync/errgroup"
)

// Model is a loaded glTF scene: a forest of nodes that reference meshes.
type Model struct {
	Name   string
	Roots  []*Node
	Meshes []*Mesh
}

// Node is one node of a loaded glTF scene.
type Node struct {
	Name     string
	Local    math3d.Mat4 // Local transform relative to the parent
	Mesh     *Mesh       // nil for pure transform nodes
	Children []*Node
}

// TriangleCount returns the number of triangles referenced by all nodes.
// Meshes instanced by several nodes count once per instance.
func (m *Model) TriangleCount() int {
	total := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Mesh != nil {
			total += n.Mesh.TriangleCount()
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range m.Roots {
		walk(r)
	}
	return total
}

// GLTFLoader loads GLTF/GLB files into a Model.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	MaxDecoders      int // Concurrent image decoders; <= 0 means GOMAXPROCS
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		MaxDecoders:      runtime.GOMAXPROCS(0),
	}
}

// Load opens a .gltf (with external buffers and images) or .glb file.
func Load(ctx context.Context, path string) (*Model, error) {
	return NewGLTFLoader().Load(ctx, path)
}

// Load loads a GLTF or GLB file and returns its default scene.
func (l *GLTFLoader) Load(ctx context.Context, path string) (*Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	images, err := l.decodeImages(ctx, doc, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	materials := readMaterials(doc, images)

	meshes := make([]*Mesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		mesh, err := l.readMesh(doc, m, materials)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		meshes[i] = mesh
	}

	model := &Model{Name: filepath.Base(path), Meshes: meshes}
	visited := make(map[int]bool)
	for _, idx := range sceneRoots(doc) {
		n, err := buildNode(doc, idx, meshes, visited)
		if err != nil {
			return nil, err
		}
		model.Roots = append(model.Roots, n)
	}

	return model, nil
}

// sceneRoots returns the root node indices of the default scene. Documents
// without scenes fall back to every node that is nobody's child.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func buildNode(doc *gltf.Document, idx int, meshes []*Mesh, visited map[int]bool) (*Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %d is referenced twice", idx)
	}
	visited[idx] = true

	src := doc.Nodes[idx]
	n := &Node{Name: src.Name, Local: localMatrix(src)}
	if src.Mesh != nil {
		if *src.Mesh < 0 || *src.Mesh >= len(meshes) {
			return nil, fmt.Errorf("node %q: mesh index %d out of range", src.Name, *src.Mesh)
		}
		n.Mesh = meshes[*src.Mesh]
	}

	for _, c := range src.Children {
		child, err := buildNode(doc, c, meshes, visited)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// localMatrix prefers an explicit matrix and otherwise composes TRS.
func localMatrix(n *gltf.Node) math3d.Mat4 {
	m := n.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		return math3d.FromArray(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math3d.Compose(
		math3d.V3(t[0], t[1], t[2]),
		math3d.FromQuat(r[0], r[1], r[2], r[3]),
		math3d.V3(s[0], s[1], s[2]),
	)
}

// readMesh merges all triangle primitives of a glTF mesh into one Mesh.
func (l *GLTFLoader) readMesh(doc *gltf.Document, m *gltf.Mesh, materials []Material) (*Mesh, error) {
	mesh := NewMesh(m.Name)
	mesh.Materials = materials

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		posAcr, err := accessor(doc, posIdx)
		if err != nil {
			return nil, err
		}
		positions, err := modeler.ReadPosition(doc, posAcr, nil)
		if err != nil {
			return nil, fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			acr, err := accessor(doc, idx)
			if err != nil {
				return nil, err
			}
			if normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			acr, err := accessor(doc, idx)
			if err != nil {
				return nil, err
			}
			if uvs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("read uvs: %w", err)
			}
		}

		material := -1
		if prim.Material != nil && *prim.Material < len(materials) {
			material = *prim.Material
		}

		baseVertex := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
			if i < len(normals) {
				v.Normal = math3d.V3(float64(normals[i][0]), float64(normals[i][1]), float64(normals[i][2]))
			}
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				v.UV = math3d.V2(float64(uvs[i][0]), 1.0-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			acr, err := accessor(doc, *prim.Indices)
			if err != nil {
				return nil, err
			}
			if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
				return nil, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{
				V: [3]int{
					baseVertex + int(indices[i]),
					baseVertex + int(indices[i+1]),
					baseVertex + int(indices[i+2]),
				},
				Material: material,
			}
			if f.V[0] >= len(mesh.Vertices) || f.V[1] >= len(mesh.Vertices) || f.V[2] >= len(mesh.Vertices) {
				return nil, fmt.Errorf("index out of range in primitive of %q", m.Name)
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals && l.SmoothNormals {
		mesh.CalculateSmoothNormals()
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// readMaterials converts glTF metallic-roughness materials. images is
// indexed like doc.Images; nil entries mean the image failed to decode.
func readMaterials(doc *gltf.Document, images []image.Image) []Material {
	materials := make([]Material, len(doc.Materials))
	for i, src := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = src.Name
		mat.DoubleSided = src.DoubleSided
		if pbr := src.PBRMetallicRoughness; pbr != nil {
			mat.BaseColor = pbr.BaseColorFactorOrDefault()
			mat.Metallic = pbr.MetallicFactorOrDefault()
			mat.Roughness = pbr.RoughnessFactorOrDefault()
			if pbr.BaseColorTexture != nil {
				if img := textureImage(doc, pbr.BaseColorTexture.Index, images); img != nil {
					mat.BaseMap = img
					mat.HasTexture = true
				}
			}
		}
		materials[i] = mat
	}
	return materials
}

func textureImage(doc *gltf.Document, texIdx int, images []image.Image) image.Image {
	if texIdx < 0 || texIdx >= len(doc.Textures) {
		return nil
	}
	src := doc.Textures[texIdx].Source
	if src == nil || *src < 0 || *src >= len(images) {
		return nil
	}
	return images[*src]
}

// decodeImages decodes every image of the document concurrently. A broken
// texture is logged and left nil; only cancellation aborts the load.
func (l *GLTFLoader) decodeImages(ctx context.Context, doc *gltf.Document, dir string) ([]image.Image, error) {
	images := make([]image.Image, len(doc.Images))
	g, ctx := errgroup.WithContext(ctx)
	limit := l.MaxDecoders
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, img := range doc.Images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := imageBytes(doc, img, dir)
			if err != nil {
				log.Warnf("texture %d (%s) unavailable: %v", i, img.Name, err)
				return nil
			}
			decoded, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				log.Warnf("texture %d (%s) could not be decoded: %v", i, img.Name, err)
				return nil
			}
			images[i] = decoded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return images, nil
}

// imageBytes returns the encoded bytes of an image stored in a buffer view,
// a data URI or a file next to the document.
func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		bv := doc.BufferViews[*img.BufferView]
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
		}
		buf := doc.Buffers[bv.Buffer]
		end := bv.ByteOffset + bv.ByteLength
		if end > len(buf.Data) {
			return nil, fmt.Errorf("buffer view exceeds buffer (%d > %d)", end, len(buf.Data))
		}
		return buf.Data[bv.ByteOffset:end], nil
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			name = img.URI
		}
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	default:
		return nil, fmt.Errorf("image has no source")
	}
}
