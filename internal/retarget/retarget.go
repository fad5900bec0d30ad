// Package retarget moves skinned meshes from one armature onto another by
// matching bone names.
package retarget

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mu-bmd-retarget/internal/scene"
)

// DefaultResetTransform is the reset behaviour used when a run does not
// configure one.
const DefaultResetTransform = true

// MissingBonePlaceholder stands in for a bone reference without a usable name.
const MissingBonePlaceholder = "<null>"

var (
	// ErrInvalidArgument reports an absent or empty mesh list.
	ErrInvalidArgument = errors.New("retarget: invalid argument")
	// ErrNullReference reports a nil armature or parent.
	ErrNullReference = errors.New("retarget: null reference")
)

// MissingBone is one bone reference that did not resolve on the new armature.
type MissingBone struct {
	MeshName string `json:"mesh"`
	BoneName string `json:"bone"`
}

// TransferResult summarises one retarget call.
type TransferResult struct {
	TransferredCount int           `json:"transferred"`
	SkippedCount     int           `json:"skipped"`
	MissingBones     []MissingBone `json:"missing_bones"`
}

// Retargeter carries the logger diagnostics are written to.
type Retargeter struct {
	log *slog.Logger
}

// New creates a Retargeter. A nil logger uses slog.Default().
func New(log *slog.Logger) *Retargeter {
	if log == nil {
		log = slog.Default()
	}
	return &Retargeter{log: log}
}

// RetargetSkinnedMeshes runs Retarget with the default logger.
func RetargetSkinnedMeshes(meshes []*scene.SkinnedMesh, newArmature, newParent *scene.Node, resetTransform bool) (*TransferResult, error) {
	return New(nil).Retarget(meshes, newArmature, newParent, resetTransform)
}

// Retarget rebinds every mesh to the bones of newArmature with the same
// names, moves its transform under newParent keeping its world placement,
// then optionally resets the local transform to identity.
//
// nil entries in meshes are counted as skipped. Bones that do not resolve
// leave a nil slot and are reported in MissingBones; the mesh is still
// transferred. A newParent inside one of the mesh transforms is rejected with
// ErrInvalidArgument (wrapping scene.ErrCycle) before any mesh is touched.
func (r *Retargeter) Retarget(meshes []*scene.SkinnedMesh, newArmature, newParent *scene.Node, resetTransform bool) (*TransferResult, error) {
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w: no skinned meshes provided", ErrInvalidArgument)
	}
	if newArmature == nil {
		return nil, fmt.Errorf("%w: new armature is nil", ErrNullReference)
	}
	if newParent == nil {
		return nil, fmt.Errorf("%w: new parent is nil", ErrNullReference)
	}

	for _, mesh := range meshes {
		if mesh != nil && mesh.Transform != nil && mesh.Transform.IsAncestorOf(newParent) {
			return nil, fmt.Errorf("%w: parent %s is inside mesh %s: %w",
				ErrInvalidArgument, newParent.Name, mesh.Name, scene.ErrCycle)
		}
	}
	if !resetTransform && newParent.WorldMatrix().Singular() {
		r.log.Warn("parent world transform is singular, world placement will not be kept",
			"parent", newParent.Name)
	}

	index := BuildBoneIndex(newArmature)
	result := &TransferResult{MissingBones: []MissingBone{}}

	for _, mesh := range meshes {
		if mesh == nil {
			result.SkippedCount++
			continue
		}

		var missing []string
		newBones := make([]*scene.Node, len(mesh.Bones))
		for i, bone := range mesh.Bones {
			name := ""
			if bone != nil {
				name = bone.Name
			}
			resolved, ok := index.Lookup(name)
			if !ok {
				if name == "" {
					name = MissingBonePlaceholder
				}
				missing = append(missing, name)
				continue
			}
			newBones[i] = resolved
		}

		newRoot := newArmature
		if mesh.RootBone != nil {
			if resolved, ok := index.Lookup(mesh.RootBone.Name); ok {
				newRoot = resolved
			}
		}

		mesh.Bones = newBones
		mesh.RootBone = newRoot

		if mesh.Transform != nil {
			if err := mesh.Transform.SetParent(newParent, true); err != nil {
				return result, fmt.Errorf("retarget: reparent %s: %w", mesh.Name, err)
			}
			if resetTransform {
				mesh.Transform.ResetLocal()
			}
		}

		if len(missing) > 0 {
			r.log.Warn("missing bones",
				"mesh", mesh.Name,
				"bones", strings.Join(missing, ", "),
			)
			for _, name := range missing {
				result.MissingBones = append(result.MissingBones, MissingBone{MeshName: mesh.Name, BoneName: name})
			}
		}

		result.TransferredCount++
	}

	if len(result.MissingBones) > 0 {
		r.log.Info("skinned mesh transfer finished",
			"transferred", result.TransferredCount,
			"skipped", result.SkippedCount,
			"missing_bones", len(result.MissingBones),
		)
	} else {
		r.log.Info("skinned mesh transfer finished",
			"transferred", result.TransferredCount,
			"skipped", result.SkippedCount,
			"note", "all bones mapped",
		)
	}

	return result, nil
}
