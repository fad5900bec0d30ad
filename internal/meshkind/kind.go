// Package meshkind tells equipment geometry apart from the character body
// underlays and glow overlays that equipment models often carry.
package meshkind

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mu-bmd-retarget/internal/bmd"
)

// Kind classifies a mesh.
type Kind int

const (
	Equipment Kind = iota
	Body
	Effect
)

var kindNames = [...]string{"equipment", "body", "effect"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(s, n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("meshkind: unknown kind %q", s)
}

var gradientRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

var effectWords = []string{
	"glow", "flare", "chrome", "effect",
	"aura", "shiny", "spark", "fire", "blur",
	"elec_light", "arrowlight", "lighting_mega", "pin_star",
	"lightmarks", "light_blue", "light_red",
	"energy", "plasma", "shine", "halo", "trail",
	"gradation", "sdblight", "alpha_line", "4x4", "damage",
	"ground_wind", "ground_star", "line_of_big",
	"force", "runeset",
	"shockwave", "swordeff",
	"cursorpin", "empact", "circle_shield",
	"arrowbom", "raypiece",
}

// "flame" only counts at the start of a stem: "requitalbox_flame_wood" is a
// wooden frame.
var effectPrefixes = []string{"flame"}

// Character skin, face and hair textures. They never name equipment.
var bodyRE = regexp.MustCompile(`(?i)^(?:` +
	`hqskin(?:2)?(?:_)?class\d+` +
	`|skinclass\d+head` +
	`|nude_` +
	`|item\d+_head` +
	`|skin_(?:barbarian|warrior|class)` +
	`|level_man\d+` +
	`|(?:hq)?hair_r` +
	`|cobraset_hair` +
	`|tknight_hair` +
	`)`)

// overlaySpan is the largest extent of a tiny mesh still taken for a
// billboard overlay.
const overlaySpan = 20

// Classify names the kind of m from its texture name, falling back to a
// size test for tiny untextured-looking quads.
func Classify(m *bmd.Mesh) Kind {
	stem := textureStem(m.TexPath)
	if bodyRE.MatchString(stem) {
		return Body
	}
	if gradientRE.MatchString(stem) {
		return Effect
	}
	for _, w := range effectWords {
		if strings.Contains(stem, w) {
			return Effect
		}
	}
	for _, p := range effectPrefixes {
		if strings.HasPrefix(stem, p) {
			return Effect
		}
	}
	if isSmallOverlay(m) {
		return Effect
	}
	return Equipment
}

func textureStem(texPath string) string {
	base := filepath.Base(strings.ReplaceAll(strings.ToLower(texPath), "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// isSmallOverlay matches meshes of at most 8 vertices and 4 faces whose
// extent stays under overlaySpan.
func isSmallOverlay(m *bmd.Mesh) bool {
	if len(m.Verts) == 0 || len(m.Verts) > 8 || len(m.Tris) > 4 {
		return false
	}
	lo, hi := m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	for k := 0; k < 3; k++ {
		if hi[k]-lo[k] > overlaySpan {
			return false
		}
	}
	return true
}

// Exclude returns the indices of meshes in m whose kind is in kinds, ascending.
func Exclude(m *bmd.Model, kinds []Kind) []int {
	if len(kinds) == 0 {
		return nil
	}
	var out []int
	for i := range m.Meshes {
		k := Classify(&m.Meshes[i])
		for _, x := range kinds {
			if k == x {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
