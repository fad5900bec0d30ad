package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major. Used for node and bone world transforms.
// The last row is always (0, 0, 0, 1).
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// FromMat3Translation builds a 4×4 affine matrix from a 3×3 rotation and translation.
func FromMat3Translation(r Mat3, t Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// ComposeTRS builds T × R × S.
func ComposeTRS(t Vec3, q Quat, s Vec3) Mat4 {
	r := QuatToMat3(q)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			r[row*3+col] *= s[col]
		}
	}
	return FromMat3Translation(r, t)
}

// Upper3 returns the linear 3×3 block.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// DecomposeTRS splits an affine matrix into translation, rotation and scale.
// A negative determinant is folded into the X scale. Shear is dropped.
func (m Mat4) DecomposeTRS() (Vec3, Quat, Vec3) {
	t := m.Translation()
	l := m.Upper3()

	var s Vec3
	for col := 0; col < 3; col++ {
		s[col] = l.Col(col).Len()
	}
	if l.Det() < 0 {
		s[0] = -s[0]
	}

	r := l
	for col := 0; col < 3; col++ {
		if math.Abs(s[col]) < 1e-12 {
			continue
		}
		for row := 0; row < 3; row++ {
			r[row*3+col] /= s[col]
		}
	}
	return t, Mat3ToQuat(r), s
}

// InverseAffine inverts an affine matrix. A singular linear block yields identity,
// matching Mat3.Inverse.
func (m Mat4) InverseAffine() Mat4 {
	inv := m.Upper3().Inverse()
	t := inv.MulVec3(m.Translation()).Scale(-1)
	return FromMat3Translation(inv, t)
}

// Singular reports whether the linear block has no inverse.
func (m Mat4) Singular() bool {
	return m.Upper3().Det() == 0
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	return m.ApproxEqual(Mat4Identity(), 1e-8)
}

// ApproxEqual compares element-wise within eps.
func (m Mat4) ApproxEqual(o Mat4, eps float64) bool {
	for i := 0; i < 16; i++ {
		d := m[i] - o[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
