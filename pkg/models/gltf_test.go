package models

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/roomview/pkg/math3d"
)

// writeRoomFixture saves a two-node GLB: a translated "room" group whose
// child "wall" holds one red, textured triangle.
func writeRoomFixture(t *testing.T) string {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.RGBA{R: 0, G: 255, B: 0, A: 255})
		}
	}
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	imgIdx, err := modeler.WriteImage(doc, "wall.png", "image/png", &buf)
	if err != nil {
		t.Fatalf("write image: %v", err)
	}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(imgIdx)}}

	metallic, roughness := 0.0, 0.5
	doc.Materials = []*gltf.Material{{
		Name: "plaster",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float64{1, 0, 0, 1},
			MetallicFactor:   &metallic,
			RoughnessFactor:  &roughness,
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "wall",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos, gltf.TEXCOORD_0: uv},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "room", Children: []int{1}, Translation: [3]float64{0, 1, 0}},
		{Name: "wall", Mesh: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "room.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, writeRoomFixture(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
	if loader.MaxDecoders <= 0 {
		t.Errorf("MaxDecoders should be positive, got %d", loader.MaxDecoders)
	}
}

func TestLoadHierarchy(t *testing.T) {
	model, err := Load(context.Background(), writeRoomFixture(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(model.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(model.Roots))
	}
	room := model.Roots[0]
	if room.Name != "room" || room.Mesh != nil {
		t.Errorf("root should be the empty room group, got %q (mesh %v)", room.Name, room.Mesh)
	}
	if got := room.Local.Translation(); !got.ApproxEqual(math3d.V3(0, 1, 0), 1e-9) {
		t.Errorf("room translation = %v, want (0,1,0)", got)
	}
	if len(room.Children) != 1 || room.Children[0].Mesh == nil {
		t.Fatalf("room should have one mesh child")
	}
	if model.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", model.TriangleCount())
	}
}

func TestLoadGeometry(t *testing.T) {
	model, err := Load(context.Background(), writeRoomFixture(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh := model.Meshes[0]

	if mesh.VertexCount() != 3 {
		t.Fatalf("VertexCount() = %d, want 3", mesh.VertexCount())
	}
	// Winding is kept as authored (counter-clockwise)
	if got := mesh.GetFace(0); got != [3]int{0, 1, 2} {
		t.Errorf("face 0 = %v, want [0 1 2]", got)
	}
	// No normals in the file: smooth normals are derived from the +Z facing triangle
	for i := range mesh.Vertices {
		_, n, _ := mesh.GetVertex(i)
		if !n.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
			t.Errorf("vertex %d normal = %v, want +Z", i, n)
		}
	}
	// V is flipped to a bottom-left origin
	if _, _, uv := mesh.GetVertex(2); math.Abs(uv.Y) > 1e-6 {
		t.Errorf("vertex 2 uv.y = %f, want 0", uv.Y)
	}
	if mesh.BoundsMax != math3d.V3(1, 1, 0) {
		t.Errorf("BoundsMax = %v, want (1,1,0)", mesh.BoundsMax)
	}
}

func TestLoadMaterials(t *testing.T) {
	model, err := Load(context.Background(), writeRoomFixture(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh := model.Meshes[0]

	mat := mesh.GetMaterial(mesh.GetFaceMaterial(0))
	if mat == nil {
		t.Fatal("face 0 should reference a material")
	}
	if mat.Name != "plaster" {
		t.Errorf("material name = %q, want plaster", mat.Name)
	}
	if mat.BaseColor != [4]float64{1, 0, 0, 1} {
		t.Errorf("BaseColor = %v, want red", mat.BaseColor)
	}
	if mat.Roughness != 0.5 || mat.Metallic != 0 {
		t.Errorf("metallic/roughness = %f/%f, want 0/0.5", mat.Metallic, mat.Roughness)
	}
	if !mat.HasTexture || mat.BaseMap == nil {
		t.Fatal("base colour texture should be decoded")
	}
	if b := mat.BaseMap.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Errorf("texture size = %v, want 2x2", b)
	}
}

func TestSceneRootsWithoutScenes(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "a", Children: []int{2}},
			{Name: "b"},
			{Name: "c"},
		},
	}
	got := sceneRoots(doc)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("sceneRoots() = %v, want [0 1]", got)
	}
}

func TestLocalMatrix(t *testing.T) {
	tests := []struct {
		name string
		node *gltf.Node
		in   math3d.Vec3
		want math3d.Vec3
	}{
		{"identity", &gltf.Node{}, math3d.V3(1, 2, 3), math3d.V3(1, 2, 3)},
		{"translation", &gltf.Node{Translation: [3]float64{1, 0, 0}}, math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)},
		{"scale", &gltf.Node{Scale: [3]float64{2, 2, 2}}, math3d.V3(1, 1, 1), math3d.V3(2, 2, 2)},
		{
			// 90 degrees around Y maps +X to -Z
			"rotation",
			&gltf.Node{Rotation: [4]float64{0, math.Sqrt2 / 2, 0, math.Sqrt2 / 2}},
			math3d.V3(1, 0, 0),
			math3d.V3(0, 0, -1),
		},
		{
			"matrix",
			&gltf.Node{Matrix: [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}},
			math3d.V3(0, 0, 0),
			math3d.V3(5, 6, 7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localMatrix(tt.node).MulVec3(tt.in)
			if !got.ApproxEqual(tt.want, 1e-9) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
