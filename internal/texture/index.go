package texture

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths. Formats with an
// alpha channel (OZT, TGA) win over OZJ and JPEG for the same stem.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

var extRank = map[string]int{
	".jpg":  1,
	".jpeg": 1,
	".ozj":  2,
	".tga":  3,
	".ozt":  4,
}

// BuildIndex scans each model directory for textures: the directory itself
// and, recursively, a "texture" or "Texture" subdirectory. Earlier
// directories win on ties so a source model's textures shadow the target's.
func BuildIndex(modelDirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}

	for _, dir := range modelDirs {
		if dir == "" {
			continue
		}
		found := make(map[string]string)

		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if !e.IsDir() {
				addCandidate(found, filepath.Join(dir, e.Name()))
			}
		}

		for _, sub := range []string{"texture", "Texture"} {
			texDir := filepath.Join(dir, sub)
			if info, err := os.Stat(texDir); err != nil || !info.IsDir() {
				continue
			}
			filepath.WalkDir(texDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				addCandidate(found, path)
				return nil
			})
		}

		for stem, path := range found {
			if _, taken := idx.entries[stem]; !taken {
				idx.entries[stem] = path
			}
		}
	}

	return idx
}

func addCandidate(found map[string]string, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	rank, ok := extRank[ext]
	if !ok {
		return
	}
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if existing, exists := found[stem]; exists && extRank[strings.ToLower(filepath.Ext(existing))] >= rank {
		return
	}
	found[stem] = path
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
// Directory prefixes and the extension in texName are ignored.
func (idx *Index) ResolvePath(texName string) (string, bool) {
	texName = strings.ReplaceAll(texName, "\\", "/")
	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
