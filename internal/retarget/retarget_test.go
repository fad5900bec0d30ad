package retarget

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-retarget/internal/mathutil"
	"mu-bmd-retarget/internal/scene"
)

// armature builds Hips -> Spine -> Head.
func armature() (hips, spine, head *scene.Node) {
	hips = scene.NewNode("Hips", nil)
	spine = scene.NewNode("Spine", hips)
	head = scene.NewNode("Head", spine)
	return hips, spine, head
}

// oldMesh builds a mesh bound to a separate old skeleton with the given bone names.
func oldMesh(name string, boneNames ...string) *scene.SkinnedMesh {
	oldRoot := scene.NewNode("OldRig", nil)
	bones := make([]*scene.Node, len(boneNames))
	for i, bn := range boneNames {
		bones[i] = scene.NewNode(bn, oldRoot)
	}
	tr := scene.NewNode(name, oldRoot)
	tr.Position = mathutil.Vec3{1, 2, 3}
	tr.Rotation = mathutil.EulerToQuat(0.2, 0.4, 0.6)
	tr.Scale = mathutil.Vec3{2, 2, 2}

	var root *scene.Node
	if len(bones) > 0 {
		root = bones[0]
	}
	return &scene.SkinnedMesh{Name: name, Bones: bones, RootBone: root, Transform: tr}
}

func quietRetargeter() (*Retargeter, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func TestScenarioHipsSpineTail(t *testing.T) {
	hips, spine, _ := armature()
	parent := scene.NewNode("P", nil)
	m := oldMesh("M", "Hips", "Spine", "Tail")

	r, logs := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, parent, true)
	require.NoError(t, err)

	assert.Equal(t, []*scene.Node{hips, spine, nil}, m.Bones)
	assert.Same(t, hips, m.RootBone)
	assert.Equal(t, []MissingBone{{MeshName: "M", BoneName: "Tail"}}, res.MissingBones)
	assert.Equal(t, 1, res.TransferredCount)
	assert.Equal(t, 0, res.SkippedCount)
	assert.Same(t, parent, m.Transform.Parent)
	assert.True(t, m.Transform.LocalMatrix().IsIdentity())

	assert.Contains(t, logs.String(), "missing bones")
	assert.Contains(t, logs.String(), "Tail")
	assert.Contains(t, logs.String(), "missing_bones=1")
}

func TestAllBonesResolve(t *testing.T) {
	hips, spine, head := armature()
	m := oldMesh("Body", "Head", "Hips", "Spine", "Head")

	r, logs := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)

	assert.Equal(t, []*scene.Node{head, hips, spine, head}, m.Bones)
	assert.Same(t, head, m.RootBone)
	assert.Empty(t, res.MissingBones)
	assert.Contains(t, logs.String(), "all bones mapped")

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"missing_bones":[]`)
}

func TestUnnamedAndNilBonesUsePlaceholder(t *testing.T) {
	hips, _, _ := armature()
	m := oldMesh("M", "Hips", "")
	m.Bones = append(m.Bones, nil)

	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)

	require.Len(t, m.Bones, 3)
	assert.Same(t, hips, m.Bones[0])
	assert.Nil(t, m.Bones[1])
	assert.Nil(t, m.Bones[2])
	assert.Equal(t, []MissingBone{
		{MeshName: "M", BoneName: MissingBonePlaceholder},
		{MeshName: "M", BoneName: MissingBonePlaceholder},
	}, res.MissingBones)
}

func TestRootBoneFallsBackToArmature(t *testing.T) {
	hips, _, _ := armature()
	unknownRoot := oldMesh("A", "Nope")
	nilRoot := oldMesh("B", "Spine")
	nilRoot.RootBone = nil

	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{unknownRoot, nilRoot}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)

	assert.Same(t, hips, unknownRoot.RootBone)
	assert.Same(t, hips, nilRoot.RootBone)
	// the root bone lookup never adds entries of its own
	assert.Equal(t, []MissingBone{{MeshName: "A", BoneName: "Nope"}}, res.MissingBones)
}

func TestNilEntriesAreSkipped(t *testing.T) {
	hips, _, _ := armature()
	m := oldMesh("M", "Hips")

	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{nil, m, nil}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)

	assert.Equal(t, 1, res.TransferredCount)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Empty(t, res.MissingBones)
}

func TestAllNilEntriesIsNotAnError(t *testing.T) {
	hips, _, _ := armature()
	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{nil}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TransferredCount)
	assert.Equal(t, 1, res.SkippedCount)
}

func TestPreconditions(t *testing.T) {
	hips, _, _ := armature()
	parent := scene.NewNode("P", nil)

	tests := []struct {
		name     string
		meshes   []*scene.SkinnedMesh
		armature *scene.Node
		parent   *scene.Node
		want     error
	}{
		{"nil meshes", nil, hips, parent, ErrInvalidArgument},
		{"empty meshes", []*scene.SkinnedMesh{}, hips, parent, ErrInvalidArgument},
		{"nil armature", []*scene.SkinnedMesh{oldMesh("M", "Hips")}, nil, parent, ErrNullReference},
		{"nil parent", []*scene.SkinnedMesh{oldMesh("M", "Hips")}, hips, nil, ErrNullReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before []*scene.Node
			var oldParent *scene.Node
			if len(tt.meshes) > 0 {
				before = append(before, tt.meshes[0].Bones...)
				oldParent = tt.meshes[0].Transform.Parent
			}

			res, err := RetargetSkinnedMeshes(tt.meshes, tt.armature, tt.parent, true)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, res)

			if len(tt.meshes) > 0 {
				assert.Equal(t, before, tt.meshes[0].Bones)
				assert.Same(t, oldParent, tt.meshes[0].Transform.Parent)
			}
		})
	}
}

func TestResetTransformFalseKeepsWorldPlacement(t *testing.T) {
	hips, _, _ := armature()
	parent := scene.NewNode("P", nil)
	parent.Position = mathutil.Vec3{-7, 3, 1}
	parent.Rotation = mathutil.EulerToQuat(0.9, -0.1, 0.5)
	parent.Scale = mathutil.Vec3{3, 3, 3}

	m := oldMesh("M", "Hips")
	m.Transform.Parent.Position = mathutil.Vec3{2, 0, 0}
	before := m.Transform.WorldMatrix()
	bt, bq, bs := m.Transform.WorldTRS()

	r, _ := quietRetargeter()
	_, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, parent, false)
	require.NoError(t, err)

	assert.True(t, m.Transform.WorldMatrix().ApproxEqual(before, 1e-9))
	at, aq, as := m.Transform.WorldTRS()
	assert.True(t, at.ApproxEqual(bt, 1e-9))
	assert.True(t, aq.ApproxEqual(bq, 1e-9))
	assert.True(t, as.ApproxEqual(bs, 1e-9))
}

func TestResetTransformTrueOverridesWorldPlacement(t *testing.T) {
	hips, _, _ := armature()
	parent := scene.NewNode("P", nil)
	parent.Position = mathutil.Vec3{4, 4, 4}

	m := oldMesh("M", "Hips")
	r, _ := quietRetargeter()
	_, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, parent, true)
	require.NoError(t, err)

	assert.Equal(t, mathutil.Vec3{}, m.Transform.Position)
	assert.Equal(t, mathutil.QuatIdentity(), m.Transform.Rotation)
	assert.Equal(t, mathutil.Vec3One, m.Transform.Scale)
	assert.Equal(t, parent.WorldMatrix(), m.Transform.WorldMatrix())
}

func TestParentInsideMeshRejectedBeforeAnyChange(t *testing.T) {
	hips, _, _ := armature()
	first := oldMesh("First", "Hips")
	m := oldMesh("M", "Spine", "Tail")
	inner := scene.NewNode("Inner", m.Transform)

	firstBones := append([]*scene.Node(nil), first.Bones...)
	firstParent := first.Transform.Parent
	mBones := append([]*scene.Node(nil), m.Bones...)
	mRoot := m.RootBone

	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{first, m, nil}, hips, inner, true)
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, scene.ErrCycle)
	assert.Nil(t, res)

	assert.Equal(t, firstBones, first.Bones)
	assert.Same(t, firstParent, first.Transform.Parent)
	assert.Equal(t, mBones, m.Bones)
	assert.Same(t, mRoot, m.RootBone)
	assert.Same(t, inner, m.Transform.Children[0])
}

func TestSingularParentWarnsWhenKeepingPlacement(t *testing.T) {
	hips, _, _ := armature()
	parent := scene.NewNode("Flat", nil)
	parent.Scale = mathutil.Vec3{0, 1, 1}

	r, logs := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{oldMesh("M", "Hips")}, hips, parent, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TransferredCount)
	assert.Contains(t, logs.String(), "parent world transform is singular")

	r, logs = quietRetargeter()
	_, err = r.Retarget([]*scene.SkinnedMesh{oldMesh("M", "Hips")}, hips, parent, true)
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "singular")
}

func TestMeshWithoutTransformIsStillRebound(t *testing.T) {
	hips, spine, _ := armature()
	m := oldMesh("M", "Spine")
	m.Transform = nil

	r, _ := quietRetargeter()
	res, err := r.Retarget([]*scene.SkinnedMesh{m}, hips, scene.NewNode("P", nil), true)
	require.NoError(t, err)
	assert.Equal(t, []*scene.Node{spine}, m.Bones)
	assert.Equal(t, 1, res.TransferredCount)
}
