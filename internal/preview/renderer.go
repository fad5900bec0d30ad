// Package preview renders a BMD model in its bind pose to a small image so a
// retargeted mesh can be checked at a glance.
package preview

import (
	"image"
	"math"

	"mu-bmd-retarget/internal/bmd"
	"mu-bmd-retarget/internal/mathutil"
	"mu-bmd-retarget/internal/skeleton"
	"mu-bmd-retarget/internal/texture"
)

// Options controls one render.
type Options struct {
	Size        int    // output edge in pixels
	Supersample int    // render at Size*Supersample, then downsample
	View        string // "front" or "three-quarter"
	Background  [4]uint8
}

// DefaultOptions is a 256px transparent three-quarter view, 2x supersampled.
func DefaultOptions() Options {
	return Options{Size: 256, Supersample: 2, View: "three-quarter"}
}

// untexturedColor is used for meshes whose texture cannot be resolved.
var untexturedColor = [4]uint8{160, 160, 170, 255}

// Render draws m posed on its own skeleton. m is not modified. The returned
// image is Size*Supersample pixels square; WriteWebP downsamples it to the
// final size.
func Render(m *bmd.Model, tex texture.Resolver, opts Options) *image.NRGBA {
	opts = opts.normalize()
	renderSize := opts.Size * opts.Supersample

	meshes := make([]bmd.Mesh, len(m.Meshes))
	for i, src := range m.Meshes {
		meshes[i] = src
		meshes[i].Verts = append([][3]float32(nil), src.Verts...)
	}
	skeleton.ApplyTransforms(meshes, m.Bones)

	view := mathutil.PreviewView(opts.View)
	projected := make([][]mathutil.Vec3, len(meshes))

	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, mesh := range meshes {
		pts := make([]mathutil.Vec3, len(mesh.Verts))
		for j, v := range mesh.Verts {
			p := view.MulVec3(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
			pts[j] = p
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], p[k])
				hi[k] = math.Max(hi[k], p[k])
			}
		}
		projected[i] = pts
	}

	fb := NewFrameBuffer(renderSize, renderSize, opts.Background)
	if math.IsInf(lo[0], 1) {
		return fb.Image()
	}

	center := lo.Add(hi).Scale(0.5)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 0.001)
	margin := float64(renderSize) / 16
	scale := (float64(renderSize) - 2*margin) / span
	half := float64(renderSize) / 2

	toScreen := func(p mathutil.Vec3) (x, y, z float64) {
		// Image Y grows downward.
		return half + (p[0]-center[0])*scale,
			half - (p[1]-center[1])*scale,
			(p[2] - center[2]) * scale
	}

	sh := DefaultShading()
	for i, mesh := range meshes {
		var img *image.NRGBA
		if tex != nil && mesh.TexPath != "" {
			img = tex.Resolve(mesh.TexPath)
		}
		pts := projected[i]

		corner := func(tri *bmd.Triangle, k int) (Vertex, bool) {
			vi := int(tri.VI[k])
			if vi < 0 || vi >= len(pts) {
				return Vertex{}, false
			}
			var v Vertex
			v.X, v.Y, v.Z = toScreen(pts[vi])
			if ti := int(tri.TI[k]); ti >= 0 && ti < len(mesh.UVs) {
				v.U, v.V = float64(mesh.UVs[ti][0]), float64(mesh.UVs[ti][1])
			}
			return v, true
		}

		for t := range mesh.Tris {
			tri := &mesh.Tris[t]
			var c [4]Vertex
			n := 3
			if tri.Polygon == 4 {
				n = 4
			}
			ok := true
			for k := 0; k < n && ok; k++ {
				c[k], ok = corner(tri, k)
			}
			if !ok {
				continue
			}

			RasterizeTriangle(fb, [3]Vertex{c[0], c[1], c[2]}, img, untexturedColor, sh)
			if n == 4 {
				RasterizeTriangle(fb, [3]Vertex{c[0], c[2], c[3]}, img, untexturedColor, sh)
			}
		}
	}

	return fb.Image()
}

func (o Options) normalize() Options {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.Supersample < 1 {
		o.Supersample = 1
	}
	return o
}
