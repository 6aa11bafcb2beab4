package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
)

func TestAddDetachesFromPreviousParent(t *testing.T) {
	a, b, child := NewNode("a"), NewNode("b"), NewNode("child")

	if err := a.Add(child); err != nil {
		t.Fatalf("a.Add: %v", err)
	}
	if err := b.Add(child); err != nil {
		t.Fatalf("b.Add: %v", err)
	}

	if len(a.Children()) != 0 {
		t.Errorf("a should have lost its child, has %d", len(a.Children()))
	}
	if len(b.Children()) != 1 || child.Parent() != b {
		t.Errorf("child should belong to b")
	}
}

func TestAddErrors(t *testing.T) {
	root, mid, leaf := NewNode("root"), NewNode("mid"), NewNode("leaf")
	_ = root.Add(mid)
	_ = mid.Add(leaf)

	tests := []struct {
		name   string
		parent *Node
		child  *Node
		want   error
	}{
		{"nil", root, nil, ErrNilNode},
		{"self", root, root, ErrCycle},
		{"descendant", leaf, root, ErrCycle},
		{"child of own child", mid, root, ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parent.Add(tt.child); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	// Failed adds leave the tree untouched
	if root.Parent() != nil || mid.Parent() != root || leaf.Parent() != mid {
		t.Error("tree changed after rejected Add")
	}
}

func TestRemove(t *testing.T) {
	root, child := NewNode("root"), NewNode("child")
	_ = root.Add(child)

	if !root.Remove(child) {
		t.Fatal("Remove should report the child")
	}
	if child.Parent() != nil {
		t.Error("removed child still has a parent")
	}
	if root.Remove(child) {
		t.Error("second Remove should report false")
	}
}

func TestTraverseOrderAndPruning(t *testing.T) {
	root := NewNode("root")
	a, b := NewNode("a"), NewNode("b")
	a1 := NewNode("a1")
	_ = root.Add(a)
	_ = root.Add(b)
	_ = a.Add(a1)

	var all []string
	root.Traverse(func(n *Node) bool {
		all = append(all, n.Name)
		return true
	})
	if got := joinNames(all); got != "root,a,a1,b" {
		t.Errorf("pre-order = %s", got)
	}

	var pruned []string
	root.Traverse(func(n *Node) bool {
		pruned = append(pruned, n.Name)
		return n.Name != "a"
	})
	if got := joinNames(pruned); got != "root,a,b" {
		t.Errorf("pruned order = %s", got)
	}

	if root.Find("a1") != a1 || root.Find("missing") != nil {
		t.Error("Find returned the wrong node")
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

func TestWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	parent.Position = math3d.V3(0, 1, 0)
	parent.Scale = math3d.V3(2, 2, 2)
	child := NewNode("child")
	child.Position = math3d.V3(1, 0, 0)
	_ = parent.Add(child)

	got := child.WorldMatrix().MulVec3(math3d.Zero3())
	if !got.ApproxEqual(math3d.V3(2, 1, 0), 1e-9) {
		t.Errorf("child origin in world = %v, want (2,1,0)", got)
	}

	m := math3d.Translate(math3d.V3(0, 0, 5))
	child.Matrix = &m
	got = child.WorldMatrix().MulVec3(math3d.Zero3())
	if !got.ApproxEqual(math3d.V3(0, 1, 10), 1e-9) {
		t.Errorf("matrix override ignored: got %v", got)
	}
}

func TestFloor(t *testing.T) {
	f := NewFloor()

	if !f.ReceiveShadow || f.CastShadow {
		t.Errorf("floor shadows: receive=%v cast=%v", f.ReceiveShadow, f.CastShadow)
	}
	if f.Rotation.X != -math.Pi/2 {
		t.Errorf("floor rotation.x = %f", f.Rotation.X)
	}
	mat := f.Mesh.GetMaterial(0)
	if mat == nil || mat.Roughness != 0.5 || mat.Metallic != 0 {
		t.Fatalf("unexpected floor material %+v", mat)
	}
	if got := mat.BaseColor[0]; math.Abs(got-models.SRGBToLinear(0x44)) > 1e-9 {
		t.Errorf("floor colour = %f, want #444444", got)
	}

	// The plane ends up flat, facing up, spanning 10 units
	w := f.WorldMatrix()
	normal := w.NormalMatrix().MulVec3Dir(math3d.V3(0, 0, 1)).Normalize()
	if !normal.ApproxEqual(math3d.Up(), 1e-9) {
		t.Errorf("floor normal = %v, want +Y", normal)
	}
	corner := w.MulVec3(f.Mesh.BoundsMax)
	if math.Abs(corner.Y) > 1e-9 || math.Abs(corner.X-5) > 1e-9 {
		t.Errorf("floor corner = %v", corner)
	}
}

func TestFromModel(t *testing.T) {
	mesh := models.NewPlane("wall", 1, 1, models.DefaultMaterial())
	model := &models.Model{
		Name: "room.gltf",
		Roots: []*models.Node{{
			Name:  "room",
			Local: math3d.Translate(math3d.V3(0, 1, 0)),
			Children: []*models.Node{
				{Name: "wall", Local: math3d.Identity(), Mesh: mesh},
			},
		}},
	}

	root, err := FromModel(model)
	if err != nil {
		t.Fatal(err)
	}
	wall := root.Find("wall")
	if wall == nil || wall.Mesh != mesh {
		t.Fatal("wall node should carry the mesh")
	}
	if got := wall.WorldMatrix().Translation(); !got.ApproxEqual(math3d.V3(0, 1, 0), 1e-9) {
		t.Errorf("wall world translation = %v", got)
	}
}

func TestFromModelRejectsNilNode(t *testing.T) {
	model := &models.Model{
		Name: "room.gltf",
		Roots: []*models.Node{{
			Name:     "room",
			Local:    math3d.Identity(),
			Children: []*models.Node{nil},
		}},
	}
	root, err := FromModel(model)
	if !errors.Is(err, ErrNilNode) {
		t.Fatalf("FromModel error = %v, want ErrNilNode", err)
	}
	if root != nil {
		t.Error("a failed conversion should not return a subtree")
	}
}
