package bmd

// Triangle holds polygon type and index triples into vertex/normal/texcoord arrays.
// Polygon == 4 means quad (two triangles: 0-1-2 and 0-2-3).
// Raw keeps the full 64-byte record so fields this package does not
// interpret survive a rewrite.
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16
	Raw     [TriangleSize]byte
}

// Mesh holds parsed geometry for one sub-mesh within a BMD file.
// Nodes and NormalNodes index into Model.Bones.
type Mesh struct {
	Verts       [][3]float32 // vertex positions, relative to their bone
	Nodes       []int16      // bone index per vertex
	Normals     [][3]float32
	NormalNodes []int16 // bone index per normal
	NormalBind  []int16 // bound vertex per normal
	UVs         [][2]float32
	Tris        []Triangle
	Texture     int16
	TexPath     string // texture reference from BMD (e.g. "sword04.jpg")
}

// Action is one animation clip header.
type Action struct {
	Keys          int
	LockPositions bool
	Positions     [][3]float32 // len == Keys when LockPositions
}

// Track is one bone's key frames for one action.
type Track struct {
	Positions [][3]float32
	Rotations [][3]float32 // Euler XYZ radians
}

// Bone holds one bone of the skeleton hierarchy.
// BindPosition and BindRotation are the first key of the first action.
type Bone struct {
	Name         string
	Parent       int
	IsDummy      bool
	BindPosition [3]float64
	BindRotation [3]float64 // Euler XYZ radians
	Tracks       []Track    // one per action, empty for actions with no keys
}

// Model is a whole BMD file.
type Model struct {
	Name    string
	Version byte
	Meshes  []Mesh
	Actions []Action
	Bones   []Bone
}

// BoneNames returns the bone names in index order. Dummy bones have "".
func (m *Model) BoneNames() []string {
	names := make([]string, len(m.Bones))
	for i, b := range m.Bones {
		names[i] = b.Name
	}
	return names
}
