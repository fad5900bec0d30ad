package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"

	"mu-bmd-retarget/internal/postprocess"
)

// WriteWebP downsamples img to size (when it is larger) and writes it to
// path as a lossless WebP, creating the parent directory.
func WriteWebP(path string, img *image.NRGBA, size int) error {
	if size > 0 {
		img = postprocess.Downsample(img, size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("preview: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("preview: webp encode %s: %w", path, err)
	}
	return f.Close()
}
