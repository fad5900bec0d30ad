package bmd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// PlainVersion is the unencrypted file version written by Encode.
const PlainVersion = 10

// Encode serialises m as an unencrypted (version 10) BMD file.
func Encode(m *Model) ([]byte, error) {
	if len(m.Meshes) > MaxMeshes {
		return nil, fmt.Errorf("bmd: too many meshes: %d", len(m.Meshes))
	}
	if len(m.Bones) > math.MaxUint16 || len(m.Actions) > math.MaxUint16 {
		return nil, fmt.Errorf("bmd: too many bones or actions")
	}

	w := &writer{}
	w.buf.WriteString("BMD")
	w.buf.WriteByte(PlainVersion)

	w.writeStr(m.Name, NameSize)
	w.writeU16(uint16(len(m.Meshes)))
	w.writeU16(uint16(len(m.Bones)))
	w.writeU16(uint16(len(m.Actions)))

	for i := range m.Meshes {
		if err := w.writeMesh(&m.Meshes[i]); err != nil {
			return nil, fmt.Errorf("bmd: mesh %d: %w", i, err)
		}
	}

	for _, act := range m.Actions {
		w.writeI16(int16(act.Keys))
		if act.LockPositions {
			w.buf.WriteByte(1)
			for k := 0; k < act.Keys; k++ {
				w.writeVec3(at(act.Positions, k))
			}
		} else {
			w.buf.WriteByte(0)
		}
	}

	for _, bone := range m.Bones {
		if bone.IsDummy {
			w.buf.WriteByte(1)
			continue
		}
		w.buf.WriteByte(0)
		w.writeStr(bone.Name, NameSize)
		w.writeI16(int16(bone.Parent))
		for a, act := range m.Actions {
			if act.Keys <= 0 {
				continue
			}
			var tr Track
			if a < len(bone.Tracks) {
				tr = bone.Tracks[a]
			}
			for k := 0; k < act.Keys; k++ {
				w.writeVec3(at(tr.Positions, k))
			}
			for k := 0; k < act.Keys; k++ {
				w.writeVec3(at(tr.Rotations, k))
			}
		}
	}

	return w.buf.Bytes(), nil
}

// Write encodes m and writes it to path.
func Write(path string, m *Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("bmd: write %s: %w", path, err)
	}
	return nil
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) writeStr(s string, n int) {
	field := make([]byte, n)
	copy(field, s)
	w.buf.Write(field)
}

func (w *writer) writeI16(v int16) {
	w.writeU16(uint16(v))
}

func (w *writer) writeU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) writeF32(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf.Write(b[:])
}

func (w *writer) writeVec3(v [3]float32) {
	w.writeF32(v[0])
	w.writeF32(v[1])
	w.writeF32(v[2])
}

func (w *writer) writeMesh(mesh *Mesh) error {
	counts := []int{len(mesh.Verts), len(mesh.Normals), len(mesh.UVs), len(mesh.Tris)}
	for _, c := range counts {
		if c > math.MaxInt16 {
			return fmt.Errorf("element count %d exceeds %d", c, math.MaxInt16)
		}
		w.writeI16(int16(c))
	}
	w.writeI16(mesh.Texture)

	for j, v := range mesh.Verts {
		w.writeI16(at(mesh.Nodes, j))
		w.writeI16(0)
		w.writeVec3(v)
	}
	for j, n := range mesh.Normals {
		w.writeI16(at(mesh.NormalNodes, j))
		w.writeI16(0)
		w.writeVec3(n)
		w.writeI16(at(mesh.NormalBind, j))
		w.writeI16(0)
	}
	for _, uv := range mesh.UVs {
		w.writeF32(uv[0])
		w.writeF32(uv[1])
	}
	for _, tri := range mesh.Tris {
		raw := tri.Raw
		raw[0] = byte(tri.Polygon)
		for k := 0; k < 4; k++ {
			binary.LittleEndian.PutUint16(raw[2+k*2:], uint16(tri.VI[k]))
			binary.LittleEndian.PutUint16(raw[10+k*2:], uint16(tri.NI[k]))
			binary.LittleEndian.PutUint16(raw[18+k*2:], uint16(tri.TI[k]))
		}
		w.buf.Write(raw[:])
	}
	w.writeStr(mesh.TexPath, NameSize)
	return nil
}

// at returns s[i], or the zero value when i is out of range.
func at[T any](s []T, i int) T {
	var zero T
	if i < 0 || i >= len(s) {
		return zero
	}
	return s[i]
}
