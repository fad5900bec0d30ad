package preview

import (
	"image"
	"math"

	"mu-bmd-retarget/internal/mathutil"
)

// Vertex is one projected corner: screen X/Y in pixels, Z growing toward the
// camera, and its texture coordinate.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// Shading is the flat lighting used for every face.
type Shading struct {
	LightDir mathutil.Vec3 // unit, in screen space
	Ambient  float64
	Diffuse  float64
}

// DefaultShading lights from the upper left, toward the screen.
func DefaultShading() Shading {
	return Shading{
		LightDir: mathutil.Vec3{-0.4, -0.6, 0.7}.Normalize(),
		Ambient:  0.45,
		Diffuse:  0.65,
	}
}

// RasterizeTriangle fills one triangle into fb with a z-test. tex may be nil,
// in which case base is used; texels with alpha < 8 are treated as holes.
// Both windings are drawn.
func RasterizeTriangle(fb *FrameBuffer, tri [3]Vertex, tex *image.NRGBA, base [4]uint8, sh Shading) {
	x0, y0, z0 := tri[0].X, tri[0].Y, tri[0].Z
	x1, y1, z1 := tri[1].X, tri[1].Y, tri[1].Z
	x2, y2, z2 := tri[2].X, tri[2].Y, tri[2].Z

	// Face normal for flat shading
	n := mathutil.Vec3{x1 - x0, y1 - y0, z1 - z0}.Cross(mathutil.Vec3{x2 - x0, y2 - y0, z2 - z0})
	if n.Len() < 1e-8 {
		return
	}
	shade := sh.Ambient + math.Abs(n.Normalize().Dot(sh.LightDir))*sh.Diffuse

	minX := max(int(math.Floor(math.Min(math.Min(x0, x1), x2))), 0)
	maxX := min(int(math.Ceil(math.Max(math.Max(x0, x1), x2))), fb.Width-1)
	minY := max(int(math.Floor(math.Min(math.Min(y0, y1), y2))), 0)
	maxY := min(int(math.Ceil(math.Max(math.Max(y0, y1), y2))), fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-8 {
		return
	}
	invDet := 1.0 / det

	for sy := minY; sy <= maxY; sy++ {
		py := float64(sy) + 0.5
		for sx := minX; sx <= maxX; sx++ {
			px := float64(sx) + 0.5
			w0 := ((y1-y2)*(px-x2) + (x2-x1)*(py-y2)) * invDet
			w1 := ((y2-y0)*(px-x2) + (x0-x2)*(py-y2)) * invDet
			w2 := 1 - w0 - w1
			if w0 < -1e-6 || w1 < -1e-6 || w2 < -1e-6 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zi := sy*fb.Width + sx
			if z <= fb.ZBuf[zi] {
				continue
			}

			c := base
			if tex != nil {
				u := w0*tri[0].U + w1*tri[1].U + w2*tri[2].U
				v := w0*tri[0].V + w1*tri[1].V + w2*tri[2].V
				c[0], c[1], c[2], c[3] = SampleTexture(tex, u, v)
			}
			if c[3] < 8 {
				continue
			}
			fb.ZBuf[zi] = z

			pi := zi * 4
			fb.Color[pi] = clamp255(float64(c[0]) * shade)
			fb.Color[pi+1] = clamp255(float64(c[1]) * shade)
			fb.Color[pi+2] = clamp255(float64(c[2]) * shade)
			fb.Color[pi+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
