package bmd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"mu-bmd-retarget/internal/crypto"
)

const (
	// NameSize is the fixed width of model, bone and texture name fields.
	NameSize = 32
	// TriangleSize is the width of one triangle record.
	TriangleSize = 64
	// MaxMeshes rejects headers that are almost certainly garbage.
	MaxMeshes = 100
)

// ErrInvalidHeader is returned for data that does not start with "BMD".
var ErrInvalidHeader = errors.New("bmd: invalid header")

// Parse reads a BMD file and returns the whole model.
// Supports versions 10 (unencrypted), 12 (XOR) and 15 (LEA-256 ECB).
func Parse(path string, keys crypto.Keys) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bmd: read %s: %w", path, err)
	}
	m, err := Decode(raw, keys)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return m, nil
}

// Decode parses an in-memory BMD file.
func Decode(raw []byte, keys crypto.Keys) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, ErrInvalidHeader
	}

	version := raw[3]
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, fmt.Errorf("bmd: truncated v%d header", version)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, fmt.Errorf("bmd: truncated v%d data", version)
		}
		if version == 15 {
			key, err := keys.LEA()
			if err != nil {
				return nil, fmt.Errorf("bmd: v15: %w", err)
			}
			data = crypto.DecryptLEA(raw[8:8+size], key)
		} else {
			key, err := keys.XOR()
			if err != nil {
				return nil, fmt.Errorf("bmd: v12: %w", err)
			}
			data = crypto.DecryptXOR(raw[8:8+size], key)
		}
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse()
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) readStr(n int) string {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		return ""
	}
	s := r.data[r.off : r.off+n]
	r.off += n
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(r.data[r.off:]))
	r.off += 2
	return v
}

func (r *reader) readU16() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *reader) readF32() float32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

func (r *reader) readVec3() [3]float32 {
	return [3]float32{r.readF32(), r.readF32(), r.readF32()}
}

func (r *reader) readByte() byte {
	if r.off >= len(r.data) {
		return 0
	}
	b := r.data[r.off]
	r.off++
	return b
}

func (r *reader) parse() (*Model, error) {
	m := &Model{Name: r.readStr(NameSize)}
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	actionCount := int(r.readU16())

	if meshCount > MaxMeshes {
		return nil, fmt.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	m.Meshes = make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		m.Meshes = append(m.Meshes, r.parseMesh())
	}

	// Actions
	m.Actions = make([]Action, actionCount)
	for a := range m.Actions {
		act := Action{Keys: max(int(r.readI16()), 0)}
		act.LockPositions = r.readByte() > 0
		if act.LockPositions {
			act.Positions = make([][3]float32, act.Keys)
			for k := range act.Positions {
				act.Positions[k] = r.readVec3()
			}
		}
		m.Actions[a] = act
	}

	// Bones
	m.Bones = make([]Bone, 0, boneCount)
	for b := 0; b < boneCount; b++ {
		if r.readByte() > 0 {
			m.Bones = append(m.Bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{
			Name:   r.readStr(NameSize),
			Parent: int(r.readI16()),
			Tracks: make([]Track, actionCount),
		}
		for a, act := range m.Actions {
			if act.Keys <= 0 {
				continue
			}
			tr := Track{
				Positions: make([][3]float32, act.Keys),
				Rotations: make([][3]float32, act.Keys),
			}
			for k := range tr.Positions {
				tr.Positions[k] = r.readVec3()
			}
			for k := range tr.Rotations {
				tr.Rotations[k] = r.readVec3()
			}
			bone.Tracks[a] = tr
		}
		if len(bone.Tracks) > 0 && len(bone.Tracks[0].Positions) > 0 {
			p, rot := bone.Tracks[0].Positions[0], bone.Tracks[0].Rotations[0]
			bone.BindPosition = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
			bone.BindRotation = [3]float64{float64(rot[0]), float64(rot[1]), float64(rot[2])}
		}
		m.Bones = append(m.Bones, bone)
	}

	return m, nil
}

func (r *reader) parseMesh() Mesh {
	nv := int(r.readI16())
	nn := int(r.readI16())
	ntc := int(r.readI16())
	nt := int(r.readI16())
	mesh := Mesh{Texture: r.readI16()}

	// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
	mesh.Verts = make([][3]float32, max(nv, 0))
	mesh.Nodes = make([]int16, max(nv, 0))
	for j := range mesh.Verts {
		mesh.Nodes[j] = r.readI16()
		_ = r.readI16() // padding
		mesh.Verts[j] = r.readVec3()
	}

	// Normals: 20 bytes each (node:i16, pad:i16, nx:f32, ny:f32, nz:f32, bind:i16, pad:i16)
	mesh.Normals = make([][3]float32, max(nn, 0))
	mesh.NormalNodes = make([]int16, max(nn, 0))
	mesh.NormalBind = make([]int16, max(nn, 0))
	for j := range mesh.Normals {
		mesh.NormalNodes[j] = r.readI16()
		_ = r.readI16() // padding
		mesh.Normals[j] = r.readVec3()
		mesh.NormalBind[j] = r.readI16()
		_ = r.readI16() // padding
	}

	// TexCoords: 8 bytes each (u:f32, v:f32)
	mesh.UVs = make([][2]float32, max(ntc, 0))
	for j := range mesh.UVs {
		mesh.UVs[j] = [2]float32{r.readF32(), r.readF32()}
	}

	// Triangles: 64 bytes each
	mesh.Tris = make([]Triangle, 0, max(nt, 0))
	for j := 0; j < nt; j++ {
		base := r.off
		if base+TriangleSize > len(r.data) {
			break
		}
		var tri Triangle
		copy(tri.Raw[:], r.data[base:base+TriangleSize])
		tri.Polygon = int(r.data[base])
		for k := 0; k < 4; k++ {
			tri.VI[k] = int16(binary.LittleEndian.Uint16(r.data[base+2+k*2:]))
			tri.NI[k] = int16(binary.LittleEndian.Uint16(r.data[base+10+k*2:]))
			tri.TI[k] = int16(binary.LittleEndian.Uint16(r.data[base+18+k*2:]))
		}
		mesh.Tris = append(mesh.Tris, tri)
		r.off += TriangleSize
	}

	// Normalize backslashes
	mesh.TexPath = strings.ReplaceAll(r.readStr(NameSize), "\\", "/")
	return mesh
}
