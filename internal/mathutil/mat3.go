package mathutil

import "math"

// Mat3 is a 3×3 matrix stored row-major: [r0c0, r0c1, r0c2, r1c0, ...].
// It acts on column vectors: v' = M × v.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3Diag(1, 1, 1)
}

func Mat3Diag(x, y, z float64) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// Mat3FromCols assembles a matrix from its columns.
func Mat3FromCols(c0, c1, c2 Vec3) Mat3 {
	return Mat3{
		c0[0], c1[0], c2[0],
		c0[1], c1[1], c2[1],
		c0[2], c1[2], c2[2],
	}
}

// Mat3Mul returns a × b.
func Mat3Mul(a, b Mat3) Mat3 {
	return Mat3FromCols(a.MulVec3(b.Col(0)), a.MulVec3(b.Col(1)), a.MulVec3(b.Col(2)))
}

// MulVec3 returns M × v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Col returns column c as a vector.
func (m Mat3) Col(c int) Vec3 {
	return Vec3{m[c], m[3+c], m[6+c]}
}

// Det is the scalar triple product of the columns.
func (m Mat3) Det() float64 {
	return m.Col(0).Dot(m.Col(1).Cross(m.Col(2)))
}

// Inverse returns M⁻¹, or identity when M is singular.
func (m Mat3) Inverse() Mat3 {
	d := m.Det()
	if d == 0 {
		return Mat3Identity()
	}
	c0, c1, c2 := m.Col(0), m.Col(1), m.Col(2)
	r0 := c1.Cross(c2).Scale(1 / d)
	r1 := c2.Cross(c0).Scale(1 / d)
	r2 := c0.Cross(c1).Scale(1 / d)
	return Mat3{
		r0[0], r0[1], r0[2],
		r1[0], r1[1], r1[2],
		r2[0], r2[1], r2[2],
	}
}

// RotAxis rotates by angle a (radians) around a unit axis.
func RotAxis(axis Vec3, a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	t := 1 - c
	x, y, z := axis[0], axis[1], axis[2]
	return Mat3{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	}
}

func RotX(a float64) Mat3 { return RotAxis(Vec3{1, 0, 0}, a) }
func RotY(a float64) Mat3 { return RotAxis(Vec3{0, 1, 0}, a) }
func RotZ(a float64) Mat3 { return RotAxis(Vec3{0, 0, 1}, a) }

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
