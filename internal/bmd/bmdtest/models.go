// Package bmdtest builds small BMD models for tests.
package bmdtest

import "mu-bmd-retarget/internal/bmd"

func bone(name string, parent int, pos [3]float64) bmd.Bone {
	p := [3]float32{float32(pos[0]), float32(pos[1]), float32(pos[2])}
	return bmd.Bone{
		Name:         name,
		Parent:       parent,
		BindPosition: pos,
		Tracks:       []bmd.Track{{Positions: [][3]float32{p}, Rotations: [][3]float32{{}}}},
	}
}

// quad is a unit square around the origin of its bone, facing +Y.
func quad(node int16, tex string) bmd.Mesh {
	return bmd.Mesh{
		Verts:       [][3]float32{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		Nodes:       []int16{node, node, node, node},
		Normals:     [][3]float32{{0, -1, 0}},
		NormalNodes: []int16{node},
		NormalBind:  []int16{0},
		UVs:         [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Tris: []bmd.Triangle{{
			Polygon: 4,
			VI:      [4]int16{0, 1, 2, 3},
			TI:      [4]int16{0, 1, 2, 3},
		}},
		TexPath: tex,
	}
}

// Source is a model whose skeleton is Root -> Spine -> Tail. Mesh 0 uses
// Root and Spine; mesh 1 uses Tail and a bone index past the skeleton.
func Source() *bmd.Model {
	m := &bmd.Model{
		Name:    "Source",
		Version: bmd.PlainVersion,
		Actions: []bmd.Action{{Keys: 1}},
		Bones: []bmd.Bone{
			bone("Root", -1, [3]float64{0, 0, 0}),
			bone("Spine", 0, [3]float64{0, 0, 10}),
			bone("Tail", 1, [3]float64{0, -5, 0}),
		},
	}
	body := quad(0, "body.jpg")
	body.Nodes = []int16{0, 0, 1, 1}
	tail := quad(2, "tail.jpg")
	tail.Nodes = []int16{2, 2, 2, 7}
	m.Meshes = []bmd.Mesh{body, tail}
	return m
}

// Target is a model whose skeleton is Root -> {Head, Spine}, with Spine
// placed differently from Source.
func Target() *bmd.Model {
	return &bmd.Model{
		Name:    "Target",
		Version: bmd.PlainVersion,
		Actions: []bmd.Action{{Keys: 1}},
		Bones: []bmd.Bone{
			bone("Root", -1, [3]float64{0, 0, 0}),
			bone("Head", 0, [3]float64{0, 0, 30}),
			bone("Spine", 0, [3]float64{0, 0, 20}),
		},
	}
}
