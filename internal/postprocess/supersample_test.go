package postprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solid(w, h int, c [4]uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], c[:])
	}
	return img
}

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := solid(8, 8, [4]uint8{1, 2, 3, 255})
	assert.Same(t, img, Downsample(img, 8))
	assert.Same(t, img, Downsample(img, 0))
}

func TestDownsampleKeepsAspect(t *testing.T) {
	out := Downsample(solid(64, 32, [4]uint8{200, 100, 50, 255}), 16)
	assert.Equal(t, 16, out.Bounds().Dx())
	assert.Equal(t, 8, out.Bounds().Dy())

	out = Downsample(solid(20, 80, [4]uint8{200, 100, 50, 255}), 40)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestDownsampleOpaqueColourSurvives(t *testing.T) {
	out := Downsample(solid(32, 32, [4]uint8{200, 100, 50, 255}), 8)
	px := out.NRGBAAt(4, 4)
	assert.InDelta(t, 200, int(px.R), 1)
	assert.InDelta(t, 100, int(px.G), 1)
	assert.InDelta(t, 50, int(px.B), 1)
	assert.Equal(t, uint8(255), px.A)
}

func TestDownsampleTransparentStaysClear(t *testing.T) {
	out := Downsample(solid(32, 32, [4]uint8{255, 255, 255, 0}), 8)
	px := out.NRGBAAt(2, 2)
	assert.Equal(t, uint8(0), px.A)
	assert.Equal(t, uint8(0), px.R)
}
