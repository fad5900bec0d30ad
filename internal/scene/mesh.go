package scene

// SkinnedMesh references the bones that deform it. Bones is parallel to the
// per-vertex bone indices of the geometry, which lives outside this package.
type SkinnedMesh struct {
	Name      string
	Bones     []*Node
	RootBone  *Node
	Transform *Node
}
