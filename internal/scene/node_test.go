package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-retarget/internal/mathutil"
)

const eps = 1e-9

func testTree() *Node {
	root := NewNode("root", nil)
	child0 := NewNode("child0", root)
	NewNode("child1", root)
	NewNode("subchild0", child0)
	NewNode("subsubchild0", child0.Children[0])
	return root
}

func TestWalkBreadth(t *testing.T) {
	var got []string
	WalkBreadth(testTree(), func(n *Node) bool {
		got = append(got, n.Name)
		return true
	})
	assert.Equal(t, []string{"root", "child0", "child1", "subchild0", "subsubchild0"}, got)
}

func TestWalkDepth(t *testing.T) {
	var got []string
	WalkDepth(testTree(), func(n *Node) bool {
		got = append(got, n.Path())
		return true
	})
	assert.Equal(t, []string{
		"/root",
		"/root/child0",
		"/root/child0/subchild0",
		"/root/child0/subchild0/subsubchild0",
		"/root/child1",
	}, got)
}

func TestWalkStopsDescending(t *testing.T) {
	var got []string
	WalkBreadth(testTree(), func(n *Node) bool {
		got = append(got, n.Name)
		return n.Name != "child0"
	})
	assert.Equal(t, []string{"root", "child0", "child1"}, got)
}

func TestAddChildDetachesFromOldParent(t *testing.T) {
	a := NewNode("a", nil)
	b := NewNode("b", nil)
	c := NewNode("c", a)

	b.AddChild(c)

	assert.Empty(t, a.Children)
	assert.Equal(t, []*Node{c}, b.Children)
	assert.Same(t, b, c.Parent)
	assert.Equal(t, 0, c.IndexInParent())
	assert.Equal(t, 1, c.Depth())
}

func TestWorldMatrixChainsParents(t *testing.T) {
	root := NewNode("root", nil)
	root.Position = mathutil.Vec3{10, 0, 0}
	root.Rotation = mathutil.EulerToQuat(0, 0, mathutil.Deg2Rad(90))

	child := NewNode("child", root)
	child.Position = mathutil.Vec3{1, 0, 0}

	p := child.WorldMatrix().Translation()
	assert.True(t, p.ApproxEqual(mathutil.Vec3{10, 1, 0}, eps), "got %v", p)
}

func TestSetParentKeepsWorldTransform(t *testing.T) {
	oldParent := NewNode("old", nil)
	oldParent.Position = mathutil.Vec3{3, -2, 5}
	oldParent.Rotation = mathutil.EulerToQuat(0.3, -0.7, 1.1)
	oldParent.Scale = mathutil.Vec3{2, 2, 2}

	newParent := NewNode("new", nil)
	newParent.Position = mathutil.Vec3{-4, 1, 0.5}
	newParent.Rotation = mathutil.EulerToQuat(-1.2, 0.4, 0.2)
	newParent.Scale = mathutil.Vec3{0.5, 0.5, 0.5}

	n := NewNode("mesh", oldParent)
	n.Position = mathutil.Vec3{1, 2, 3}
	n.Rotation = mathutil.EulerToQuat(0.1, 0.2, 0.3)
	n.Scale = mathutil.Vec3{1, 3, 1}

	before := n.WorldMatrix()
	require.NoError(t, n.SetParent(newParent, true))

	assert.Same(t, newParent, n.Parent)
	assert.Empty(t, oldParent.Children)
	assert.True(t, n.WorldMatrix().ApproxEqual(before, 1e-9))
}

func TestSetParentWithoutWorldStaysKeepsLocal(t *testing.T) {
	newParent := NewNode("new", nil)
	newParent.Position = mathutil.Vec3{5, 5, 5}

	n := NewNode("mesh", nil)
	n.Position = mathutil.Vec3{1, 0, 0}

	require.NoError(t, n.SetParent(newParent, false))
	assert.Equal(t, mathutil.Vec3{1, 0, 0}, n.Position)
	assert.True(t, n.WorldMatrix().Translation().ApproxEqual(mathutil.Vec3{6, 5, 5}, eps))
}

func TestSetParentRejectsCycle(t *testing.T) {
	root := testTree()
	child0 := root.Children[0]
	sub := child0.Children[0]

	assert.ErrorIs(t, child0.SetParent(sub, true), ErrCycle)
	assert.ErrorIs(t, child0.SetParent(child0, true), ErrCycle)
	assert.Same(t, root, child0.Parent)
}

func TestResetLocal(t *testing.T) {
	n := NewNode("n", nil)
	n.Position = mathutil.Vec3{1, 2, 3}
	n.Rotation = mathutil.EulerToQuat(1, 1, 1)
	n.Scale = mathutil.Vec3{4, 5, 6}

	n.ResetLocal()

	assert.Equal(t, mathutil.Vec3{}, n.Position)
	assert.Equal(t, mathutil.QuatIdentity(), n.Rotation)
	assert.Equal(t, mathutil.Vec3One, n.Scale)
	assert.True(t, n.LocalMatrix().IsIdentity())
}
