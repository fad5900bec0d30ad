package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mu-bmd-retarget/internal/meshkind"
	"mu-bmd-retarget/internal/retarget"
	"mu-bmd-retarget/internal/rig"
	"mu-bmd-retarget/internal/scene"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.bmd>",
		Short: "Print the bone hierarchy and meshes of a model",
		Long: `Print the scene a model is loaded as: the bone hierarchy, which node each
bone name resolves to, and the bones every mesh is bound to. Names that
occur more than once are flagged; lookups always take the first one met
breadth-first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := opts.cfg.Keys()
			if err != nil {
				return err
			}
			r, err := rig.Load(args[0], keys)
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

func describe(w io.Writer, r *rig.Rig) {
	m := r.Model
	fmt.Fprintln(w, titleStyle.Render(m.Name))
	fmt.Fprintf(w, "version %d, %d mesh(es), %d bone(s), %d action(s)\n\n",
		m.Version, len(m.Meshes), len(m.Bones), len(m.Actions))

	index := retarget.BuildBoneIndex(r.Armature)
	counts := make(map[string]int)
	scene.WalkBreadth(r.Armature, func(n *scene.Node) bool {
		if n.Name != "" {
			counts[n.Name]++
		}
		return true
	})

	boneIdx := make(map[*scene.Node]int, len(r.Bones))
	for i, n := range r.Bones {
		boneIdx[n] = i
	}

	fmt.Fprintln(w, "Hierarchy:")
	base := r.Armature.Depth()
	scene.WalkDepth(r.Armature, func(n *scene.Node) bool {
		indent := strings.Repeat("  ", n.Depth()-base+1)
		label := n.Name
		if label == "" {
			label = dimStyle.Render("(dummy)")
		}
		if i, ok := boneIdx[n]; ok {
			label = fmt.Sprintf("[%d] %s", i, label)
		}
		if counts[n.Name] > 1 {
			first, _ := index.Lookup(n.Name)
			if first == n {
				label += " " + warnStyle.Render("(duplicate name, resolves here)")
			} else {
				label += " " + warnStyle.Render("(duplicate name, shadowed by "+first.Path()+")")
			}
		}
		fmt.Fprintf(w, "%s%s\n", indent, label)
		return true
	})

	fmt.Fprintln(w, "\nMeshes:")
	for i, sm := range r.Meshes {
		mesh := &m.Meshes[i]
		names := make([]string, len(sm.Bones))
		for j, b := range sm.Bones {
			if b == nil || b.Name == "" {
				names[j] = retarget.MissingBonePlaceholder
			} else {
				names[j] = b.Name
			}
		}
		fmt.Fprintf(w, "  %s (%s): %d verts, %d tris, texture %q\n",
			sm.Name, meshkind.Classify(mesh), len(mesh.Verts), len(mesh.Tris), mesh.TexPath)
		fmt.Fprintf(w, "    bones: %s\n", strings.Join(names, ", "))
	}
}
