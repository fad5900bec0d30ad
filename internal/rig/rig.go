// Package rig turns a BMD model into a scene graph with skinned meshes and
// writes retargeted meshes back out as a BMD model.
package rig

import (
	"fmt"
	"path/filepath"
	"sort"

	"mu-bmd-retarget/internal/bmd"
	"mu-bmd-retarget/internal/crypto"
	"mu-bmd-retarget/internal/retarget"
	"mu-bmd-retarget/internal/scene"
	"mu-bmd-retarget/internal/skeleton"
)

// ArmatureName names the synthetic armature root used when a model has
// several top-level bones.
const ArmatureName = "Armature"

// Rig is the scene graph of one model. Root holds the armature and one
// transform node per mesh.
type Rig struct {
	Path     string
	Model    *bmd.Model
	Root     *scene.Node
	Armature *scene.Node
	Bones    []*scene.Node // indexed like Model.Bones
	Meshes   []*scene.SkinnedMesh

	// slots[i][j] is the model bone index behind Meshes[i].Bones[j].
	slots     [][]int
	meshIndex map[*scene.SkinnedMesh]int
}

// Load parses a BMD file and builds its rig.
func Load(path string, keys crypto.Keys) (*Rig, error) {
	m, err := bmd.Parse(path, keys)
	if err != nil {
		return nil, err
	}
	r := Build(m)
	r.Path = path
	return r, nil
}

// Build creates a fresh scene graph for m. m is only read, so several rigs
// may be built from one parsed model.
func Build(m *bmd.Model) *Rig {
	r := &Rig{
		Model:     m,
		Root:      scene.NewNode(m.Name, nil),
		meshIndex: make(map[*scene.SkinnedMesh]int, len(m.Meshes)),
	}

	nodes, tops := skeleton.BuildHierarchy(m.Bones)
	r.Bones = nodes
	if len(tops) == 1 {
		r.Armature = tops[0]
		r.Root.AddChild(r.Armature)
	} else {
		r.Armature = scene.NewNode(ArmatureName, r.Root)
		for _, top := range tops {
			r.Armature.AddChild(top)
		}
	}

	for i := range m.Meshes {
		slots := usedBones(&m.Meshes[i])
		bones := make([]*scene.Node, len(slots))
		for j, bi := range slots {
			if bi >= 0 && bi < len(nodes) {
				bones[j] = nodes[bi]
			}
		}

		name := fmt.Sprintf("%s#%d", m.Name, i)
		sm := &scene.SkinnedMesh{
			Name:      name,
			Bones:     bones,
			RootBone:  r.Armature,
			Transform: scene.NewNode(name, r.Root),
		}

		r.Meshes = append(r.Meshes, sm)
		r.slots = append(r.slots, slots)
		r.meshIndex[sm] = i
	}
	return r
}

// usedBones lists the distinct bone indices referenced by a mesh's vertices
// and normals, ascending.
func usedBones(mesh *bmd.Mesh) []int {
	seen := make(map[int]bool)
	for _, n := range mesh.Nodes {
		seen[int(n)] = true
	}
	for _, n := range mesh.NormalNodes {
		seen[int(n)] = true
	}
	out := make([]int, 0, len(seen))
	for bi := range seen {
		out = append(out, bi)
	}
	sort.Ints(out)
	return out
}

// Dir is the directory the model was loaded from, or "".
func (r *Rig) Dir() string {
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

// Find returns the first node named name under Root, breadth-first.
func (r *Rig) Find(name string) *scene.Node {
	n, _ := retarget.BuildBoneIndex(r.Root).Lookup(name)
	return n
}

// Select returns the meshes at the given indices, in that order. An index
// out of range yields a nil entry. A nil selection means every mesh.
func (r *Rig) Select(indices []int) []*scene.SkinnedMesh {
	if indices == nil {
		return append([]*scene.SkinnedMesh(nil), r.Meshes...)
	}
	out := make([]*scene.SkinnedMesh, len(indices))
	for i, mi := range indices {
		if mi >= 0 && mi < len(r.Meshes) {
			out[i] = r.Meshes[mi]
		}
	}
	return out
}

// Export builds a model that uses target's skeleton and actions and carries
// meshes (which must belong to r) with their vertex and normal bone indices
// rewritten to the target bones they were retargeted to. A slot without a
// target bone falls back to the mesh's root bone, then to bone 0.
// nil meshes are left out.
func (r *Rig) Export(target *Rig, meshes []*scene.SkinnedMesh) (*bmd.Model, error) {
	out := &bmd.Model{
		Name:    r.Model.Name,
		Version: bmd.PlainVersion,
		Actions: target.Model.Actions,
		Bones:   target.Model.Bones,
	}

	targetIndex := make(map[*scene.Node]int, len(target.Bones))
	for i, n := range target.Bones {
		targetIndex[n] = i
	}

	for _, sm := range meshes {
		if sm == nil {
			continue
		}
		mi, ok := r.meshIndex[sm]
		if !ok {
			return nil, fmt.Errorf("rig: mesh %s does not belong to %s", sm.Name, r.Model.Name)
		}
		slots := r.slots[mi]
		if len(sm.Bones) != len(slots) {
			return nil, fmt.Errorf("rig: mesh %s has %d bones, expected %d", sm.Name, len(sm.Bones), len(slots))
		}

		fallback, ok := targetIndex[sm.RootBone]
		if !ok {
			fallback = 0
		}
		remap := make(map[int16]int16, len(slots))
		for j, bi := range slots {
			ti, ok := targetIndex[sm.Bones[j]]
			if !ok {
				ti = fallback
			}
			remap[int16(bi)] = int16(ti)
		}

		src := &r.Model.Meshes[mi]
		mesh := *src
		mesh.Verts = append([][3]float32(nil), src.Verts...)
		mesh.Nodes = remapNodes(src.Nodes, remap)
		mesh.NormalNodes = remapNodes(src.NormalNodes, remap)
		out.Meshes = append(out.Meshes, mesh)
	}
	return out, nil
}

func remapNodes(nodes []int16, remap map[int16]int16) []int16 {
	out := make([]int16, len(nodes))
	for i, n := range nodes {
		out[i] = remap[n]
	}
	return out
}
