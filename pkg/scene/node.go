// Package scene holds the scene graph: nodes with transforms and payloads
// (meshes, lights, helpers), the floor, and the background asset loader.
package scene

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/models"
)

var (
	// ErrNilNode is returned when a nil node is added.
	ErrNilNode = errors.New("scene: nil node")
	// ErrCycle is returned when a node would become its own ancestor.
	ErrCycle = errors.New("scene: node cannot be added below itself")
)

// Node is an element of the scene graph. A node is owned by at most one
// parent; adding it elsewhere detaches it first.
type Node struct {
	Name string

	// Local transform. Rotation is Euler XYZ in radians.
	Position math3d.Vec3
	Rotation math3d.Vec3
	Scale    math3d.Vec3
	// Matrix overrides Position/Rotation/Scale when set (glTF nodes).
	Matrix *math3d.Mat4

	Visible       bool
	CastShadow    bool
	ReceiveShadow bool

	// Payloads, all optional.
	Mesh   *models.Mesh
	Light  Light
	Helper *DirectionalLightHelper

	parent   *Node
	children []*Node
}

// NewNode creates a visible node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:    name,
		Scale:   math3d.V3(1, 1, 1),
		Visible: true,
	}
}

// Parent returns the owning node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Add attaches child below n, detaching it from its previous parent.
func (n *Node) Add(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	if child == n || child.IsAncestorOf(n) {
		return ErrCycle
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Remove detaches child from n. It reports whether child was a direct child.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether n appears in other's parent chain.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Traverse visits n and its descendants in pre-order. Returning false from
// fn skips the children of that node.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// Find returns the first node in pre-order with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// LocalMatrix returns the node transform relative to its parent.
func (n *Node) LocalMatrix() math3d.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return math3d.Compose(n.Position, math3d.EulerXYZ(n.Rotation), n.Scale)
}

// WorldMatrix returns the product of the local matrices up to the root.
func (n *Node) WorldMatrix() math3d.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// Scene is the root of everything rendered in a frame.
type Scene struct {
	Root       *Node
	Background color.RGBA
}

// New creates an empty scene with a black background.
func New() *Scene {
	return &Scene{
		Root:       NewNode("scene"),
		Background: color.RGBA{R: 0, G: 0, B: 0, A: 255},
	}
}

// Add attaches n to the scene root.
func (s *Scene) Add(n *Node) error {
	return s.Root.Add(n)
}

// Traverse walks the whole scene in pre-order.
func (s *Scene) Traverse(fn func(*Node) bool) {
	s.Root.Traverse(fn)
}

// Find looks up a node by name anywhere in the scene.
func (s *Scene) Find(name string) *Node {
	return s.Root.Find(name)
}

// FromModel converts a loaded model into a detached subtree rooted at a
// group node named after the model.
func FromModel(m *models.Model) (*Node, error) {
	root := NewNode(m.Name)
	for _, r := range m.Roots {
		n, err := fromModelNode(r)
		if err != nil {
			return nil, err
		}
		if err := root.Add(n); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func fromModelNode(src *models.Node) (*Node, error) {
	if src == nil {
		return nil, ErrNilNode
	}
	n := NewNode(src.Name)
	local := src.Local
	n.Matrix = &local
	n.Mesh = src.Mesh
	for _, c := range src.Children {
		child, err := fromModelNode(c)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		if err := n.Add(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}
