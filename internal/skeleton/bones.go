package skeleton

import (
	"mu-bmd-retarget/internal/bmd"
	"mu-bmd-retarget/internal/mathutil"
	"mu-bmd-retarget/internal/scene"
)

// BuildHierarchy creates one scene node per bone in bind pose (frame 0, action 0).
// A bone is parented by index only when 0 <= Parent < its own index; anything
// else (including dummy bones) is returned as a top-level node. Dummy bones get
// an empty name. nodes is indexed like bones.
func BuildHierarchy(bones []bmd.Bone) (nodes []*scene.Node, tops []*scene.Node) {
	nodes = make([]*scene.Node, len(bones))
	for i, bone := range bones {
		var parent *scene.Node
		if !bone.IsDummy && bone.Parent >= 0 && bone.Parent < i {
			parent = nodes[bone.Parent]
		}

		n := scene.NewNode(bone.Name, parent)
		if !bone.IsDummy {
			n.Position = mathutil.Vec3(bone.BindPosition)
			n.Rotation = mathutil.EulerToQuat(bone.BindRotation[0], bone.BindRotation[1], bone.BindRotation[2])
		}
		nodes[i] = n
		if parent == nil {
			tops = append(tops, n)
		}
	}
	return nodes, tops
}

// BuildWorldMatrices computes the world transform for each bone using bind pose (frame 0, action 0).
// Returns a slice of 4×4 matrices indexed by bone index.
func BuildWorldMatrices(bones []bmd.Bone) []mathutil.Mat4 {
	worlds := make([]mathutil.Mat4, len(bones))
	for i := range worlds {
		worlds[i] = mathutil.Mat4Identity()
	}

	for i, bone := range bones {
		if bone.IsDummy {
			continue
		}

		// Local transform: rotation from Euler + translation
		q := mathutil.EulerToQuat(bone.BindRotation[0], bone.BindRotation[1], bone.BindRotation[2])
		local := mathutil.FromMat3Translation(mathutil.QuatToMat3(q), mathutil.Vec3(bone.BindPosition))

		// Chain with parent
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = mathutil.Mat4Mul(worlds[bone.Parent], local)
		} else {
			worlds[i] = local
		}
	}

	return worlds
}

// ApplyTransforms poses mesh vertices in place with the bone world matrices.
// Rigid skinning: 1 bone per vertex, weight = 1.0. Vertices whose bone index
// is out of range are left where they are.
func ApplyTransforms(meshes []bmd.Mesh, bones []bmd.Bone) {
	if len(bones) == 0 {
		return
	}

	worlds := BuildWorldMatrices(bones)

	allIdentity := true
	for _, w := range worlds {
		if !w.IsIdentity() {
			allIdentity = false
			break
		}
	}
	if allIdentity {
		return
	}

	for mi := range meshes {
		mesh := &meshes[mi]
		for vi := range mesh.Verts {
			if vi >= len(mesh.Nodes) {
				break
			}
			boneIdx := int(mesh.Nodes[vi])
			if boneIdx < 0 || boneIdx >= len(worlds) {
				continue
			}
			v := mathutil.Vec3{
				float64(mesh.Verts[vi][0]),
				float64(mesh.Verts[vi][1]),
				float64(mesh.Verts[vi][2]),
			}
			t := worlds[boneIdx].MulPoint(v)
			mesh.Verts[vi] = [3]float32{float32(t[0]), float32(t[1]), float32(t[2])}
		}
	}
}
