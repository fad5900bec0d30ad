package retarget

import (
	"slices"

	"mu-bmd-retarget/internal/scene"
)

// BoneIndex maps a bone name to one node of an armature.
type BoneIndex map[string]*scene.Node

// BuildBoneIndex walks the subtree under root breadth-first, root included,
// and keeps the first node seen for each name. Deeper or later siblings that
// repeat a name are ignored.
func BuildBoneIndex(root *scene.Node) BoneIndex {
	idx := make(BoneIndex)
	scene.WalkBreadth(root, func(n *scene.Node) bool {
		if _, exists := idx[n.Name]; !exists {
			idx[n.Name] = n
		}
		return true
	})
	return idx
}

// Lookup resolves a bone by name. Empty names and nil entries never resolve.
func (idx BoneIndex) Lookup(name string) (*scene.Node, bool) {
	if name == "" {
		return nil, false
	}
	n, ok := idx[name]
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}

// Names returns the names Lookup can resolve, sorted.
func (idx BoneIndex) Names() []string {
	names := make([]string, 0, len(idx))
	for name, n := range idx {
		if name != "" && n != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
