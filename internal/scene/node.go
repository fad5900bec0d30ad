// Package scene is a minimal transform hierarchy: named nodes with a local
// position/rotation/scale, parent links and ordered children.
package scene

import (
	"errors"
	"strings"

	"mu-bmd-retarget/internal/mathutil"
)

// ErrCycle is returned when a node would become its own ancestor.
var ErrCycle = errors.New("scene: reparent would create a cycle")

// Node is one transform in the hierarchy. Names are not required to be unique.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node

	Position mathutil.Vec3
	Rotation mathutil.Quat
	Scale    mathutil.Vec3
}

// NewNode creates a node with an identity local transform and appends it to
// parent's children when parent is non-nil.
func NewNode(name string, parent *Node) *Node {
	n := &Node{
		Name:     name,
		Rotation: mathutil.QuatIdentity(),
		Scale:    mathutil.Vec3One,
	}
	if parent != nil {
		parent.AddChild(n)
	}
	return n
}

// AddChild appends c to n's children without touching c's local transform.
// c is detached from its previous parent first.
func (n *Node) AddChild(c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// RemoveChild detaches c if it is a direct child of n.
func (n *Node) RemoveChild(c *Node) bool {
	for i, k := range n.Children {
		if k == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return true
		}
	}
	return false
}

// IndexInParent returns n's position among its siblings, or -1 for a root.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, k := range n.Parent.Children {
		if k == n {
			return i
		}
	}
	return -1
}

// Path returns the slash-joined names from the root down to n.
func (n *Node) Path() string {
	var parts []string
	for k := n; k != nil; k = k.Parent {
		parts = append(parts, k.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// IsAncestorOf reports whether n is c or lies above c.
func (n *Node) IsAncestorOf(c *Node) bool {
	for k := c; k != nil; k = k.Parent {
		if k == n {
			return true
		}
	}
	return false
}

// LocalMatrix returns T × R × S of the local transform.
func (n *Node) LocalMatrix() mathutil.Mat4 {
	return mathutil.ComposeTRS(n.Position, n.Rotation, n.Scale)
}

// WorldMatrix chains local matrices from the root down to n.
func (n *Node) WorldMatrix() mathutil.Mat4 {
	if n.Parent == nil {
		return n.LocalMatrix()
	}
	return mathutil.Mat4Mul(n.Parent.WorldMatrix(), n.LocalMatrix())
}

// WorldTRS decomposes the world matrix.
func (n *Node) WorldTRS() (mathutil.Vec3, mathutil.Quat, mathutil.Vec3) {
	return n.WorldMatrix().DecomposeTRS()
}

// SetParent moves n under parent (nil detaches it into a root). With
// worldPositionStays the local transform is recomputed so the world
// transform is unchanged; otherwise the local values are kept as they are.
// The kept world transform is exact only for TRS-representable results: a
// sheared product loses the shear on decompose, and under a parent with a
// singular world matrix (a zero scale axis) the inverse falls back to a
// plain translation, so the world transform is not kept.
func (n *Node) SetParent(parent *Node, worldPositionStays bool) error {
	if parent != nil && n.IsAncestorOf(parent) {
		return ErrCycle
	}

	world := n.WorldMatrix()
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	if parent != nil {
		parent.AddChild(n)
	}
	if !worldPositionStays {
		return nil
	}

	local := world
	if parent != nil {
		local = mathutil.Mat4Mul(parent.WorldMatrix().InverseAffine(), world)
	}
	n.Position, n.Rotation, n.Scale = local.DecomposeTRS()
	return nil
}

// ResetLocal sets position to zero, rotation to identity and scale to one.
func (n *Node) ResetLocal() {
	n.Position = mathutil.Vec3{}
	n.Rotation = mathutil.QuatIdentity()
	n.Scale = mathutil.Vec3One
}
