package bmd

import (
	"encoding/binary"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-retarget/internal/crypto"
)

func sampleModel() *Model {
	tri := Triangle{Polygon: 3, VI: [4]int16{0, 1, 2, 0}, NI: [4]int16{0, 1, 2, 0}, TI: [4]int16{0, 1, 2, 0}}
	tri.Raw[40] = 0xAB // a field this package does not interpret

	return &Model{
		Name:    "Sample",
		Version: PlainVersion,
		Meshes: []Mesh{{
			Verts:       [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Nodes:       []int16{0, 2, 2},
			Normals:     [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			NormalNodes: []int16{0, 2, 2},
			NormalBind:  []int16{0, 1, 2},
			UVs:         [][2]float32{{0, 0}, {1, 0}, {0, 1}},
			Tris:        []Triangle{tri},
			Texture:     4,
			TexPath:     "armor01.jpg",
		}},
		Actions: []Action{
			{Keys: 2, LockPositions: true, Positions: [][3]float32{{1, 2, 3}, {4, 5, 6}}},
			{Keys: 0},
		},
		Bones: []Bone{
			{
				Name: "Root", Parent: -1,
				BindPosition: [3]float64{0, 0, 10},
				Tracks: []Track{{
					Positions: [][3]float32{{0, 0, 10}, {0, 0, 11}},
					Rotations: [][3]float32{{0, 0, 0}, {0, 0, 0.5}},
				}, {}},
			},
			{Parent: -1, IsDummy: true},
			{
				Name: "Spine", Parent: 0,
				BindPosition: [3]float64{0, 0, 5},
				BindRotation: [3]float64{float64(float32(0.25)), 0, 0},
				Tracks: []Track{{
					Positions: [][3]float32{{0, 0, 5}, {0, 0, 5}},
					Rotations: [][3]float32{{0.25, 0, 0}, {0.5, 0, 0}},
				}, {}},
			},
		},
	}
}

func TestEncodeDecodeKeepsModel(t *testing.T) {
	want := sampleModel()
	data, err := Encode(want)
	require.NoError(t, err)
	assert.Equal(t, "BMD\x0a", string(data[:4]))

	got, err := Decode(data, crypto.Keys{})
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Actions, got.Actions)
	assert.Equal(t, want.Bones, got.Bones)
	assert.Equal(t, []string{"Root", "", "Spine"}, got.BoneNames())

	require.Len(t, got.Meshes, 1)
	gm, wm := got.Meshes[0], want.Meshes[0]
	assert.Equal(t, wm.Verts, gm.Verts)
	assert.Equal(t, wm.Nodes, gm.Nodes)
	assert.Equal(t, wm.NormalNodes, gm.NormalNodes)
	assert.Equal(t, wm.NormalBind, gm.NormalBind)
	assert.Equal(t, wm.UVs, gm.UVs)
	assert.Equal(t, wm.Texture, gm.Texture)
	assert.Equal(t, wm.TexPath, gm.TexPath)
	require.Len(t, gm.Tris, 1)
	assert.Equal(t, wm.Tris[0].VI, gm.Tris[0].VI)
	assert.Equal(t, byte(0xAB), gm.Tris[0].Raw[40])

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestWriteAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bmd")
	require.NoError(t, Write(path, sampleModel()))

	m, err := Parse(path, crypto.Keys{})
	require.NoError(t, err)
	assert.Equal(t, "Sample", m.Name)
	assert.Equal(t, byte(PlainVersion), m.Version)
}

func TestDecodeEncryptedVersions(t *testing.T) {
	plain, err := Encode(sampleModel())
	require.NoError(t, err)
	body := plain[4:]

	xorHex := strings.Repeat("a5", 16)
	leaHex := strings.Repeat("3c", 32)
	keys, err := crypto.ParseKeys(xorHex, leaHex)
	require.NoError(t, err)
	xorKey, _ := keys.XOR()
	leaKey, _ := keys.LEA()

	wrap := func(version byte, enc []byte) []byte {
		out := []byte{'B', 'M', 'D', version, 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(out[4:], uint32(len(enc)))
		return append(out, enc...)
	}

	v12 := wrap(12, crypto.EncryptXOR(body, xorKey))
	m, err := Decode(v12, keys)
	require.NoError(t, err)
	assert.Equal(t, byte(12), m.Version)
	assert.Equal(t, []string{"Root", "", "Spine"}, m.BoneNames())

	v15 := wrap(15, crypto.EncryptLEA(body, leaKey))
	m, err = Decode(v15, keys)
	require.NoError(t, err)
	assert.Equal(t, byte(15), m.Version)
	assert.Equal(t, "Sample", m.Name)

	_, err = Decode(v12, crypto.Keys{})
	assert.ErrorIs(t, err, crypto.ErrMissingKey)
	_, err = Decode(v15, crypto.Keys{})
	assert.ErrorIs(t, err, crypto.ErrMissingKey)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := Decode([]byte("PNG\x0a"), crypto.Keys{})
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = Decode([]byte("BMD\x0c\xff\x00\x00\x00"), crypto.Keys{})
	assert.ErrorContains(t, err, "truncated")

	tooMany := []byte("BMD\x0a")
	tooMany = append(tooMany, make([]byte, NameSize)...)
	tooMany = append(tooMany, 0xFF, 0x00, 0, 0, 0, 0)
	_, err = Decode(tooMany, crypto.Keys{})
	assert.ErrorContains(t, err, "invalid mesh count")
}
