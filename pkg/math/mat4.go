package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order (OpenGL and glTF compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// LookAt returns a view matrix looking from eye to center with up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// TranslateVec returns a translation matrix for v.
func TranslateVec(v Vec3) Mat4 {
	return Translate(v.X, v.Y, v.Z)
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotateX returns a rotation matrix around the X axis.
// angle is in radians.
func RotateX(angle float32) Mat4 {
	s, c := math32.Sincos(angle)

	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY returns a rotation matrix around the Y axis.
// angle is in radians.
func RotateY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)

	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// Add returns the element-wise sum m + other.
func (m Mat4) Add(other Mat4) Mat4 {
	var result Mat4
	for i := range m {
		result[i] = m[i] + other[i]
	}
	return result
}

// MulScalar scales every element, including the homogeneous row, by s.
func (m Mat4) MulScalar(s float32) Mat4 {
	var result Mat4
	for i := range m {
		result[i] = m[i] * s
	}
	return result
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[row*4+col] = m[col*4+row]
		}
	}
	return result
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// NormalMatrix returns the inverse-transpose of m with the translation part
// cleared, suitable for transforming surface normals.
func (m Mat4) NormalMatrix() Mat4 {
	n := m.Inverse().Transpose()
	n[3], n[7], n[11] = 0, 0, 0
	n[12], n[13], n[14] = 0, 0, 0
	n[15] = 1
	return n
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1) and
// applies the perspective divide.
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// TransformAffine transforms a point using only the upper 3x4 part of the
// matrix. The bottom row is ignored, so blended matrices whose m15 is not 1
// still scale the result linearly.
func (m Mat4) TransformAffine(p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// TransformVec3 transforms a Vec3 point by this matrix.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	return Vec3From(m.TransformPoint(v.Array()))
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d [3]float32) [3]float32 {
	return [3]float32{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}

// Inverse returns the inverse of the matrix, or the identity if m is
// singular. It expands along the 2x2 minors of the top and bottom row pairs.
func (m Mat4) Inverse() Mat4 {
	// Minors of rows 0-1 and rows 2-3 (row-major view of column-major m).
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[9] - m[8]*m[1]
	s2 := m[0]*m[13] - m[12]*m[1]
	s3 := m[4]*m[9] - m[8]*m[5]
	s4 := m[4]*m[13] - m[12]*m[5]
	s5 := m[8]*m[13] - m[12]*m[9]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[6]*m[15] - m[14]*m[7]
	c3 := m[6]*m[11] - m[10]*m[7]
	c2 := m[2]*m[15] - m[14]*m[3]
	c1 := m[2]*m[11] - m[10]*m[3]
	c0 := m[2]*m[7] - m[6]*m[3]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity()
	}
	inv := 1 / det

	var r Mat4
	r[0] = (m[5]*c5 - m[9]*c4 + m[13]*c3) * inv
	r[4] = (-m[4]*c5 + m[8]*c4 - m[12]*c3) * inv
	r[8] = (m[7]*s5 - m[11]*s4 + m[15]*s3) * inv
	r[12] = (-m[6]*s5 + m[10]*s4 - m[14]*s3) * inv

	r[1] = (-m[1]*c5 + m[9]*c2 - m[13]*c1) * inv
	r[5] = (m[0]*c5 - m[8]*c2 + m[12]*c1) * inv
	r[9] = (-m[3]*s5 + m[11]*s2 - m[15]*s1) * inv
	r[13] = (m[2]*s5 - m[10]*s2 + m[14]*s1) * inv

	r[2] = (m[1]*c4 - m[5]*c2 + m[13]*c0) * inv
	r[6] = (-m[0]*c4 + m[4]*c2 - m[12]*c0) * inv
	r[10] = (m[3]*s4 - m[7]*s2 + m[15]*s0) * inv
	r[14] = (-m[2]*s4 + m[6]*s2 - m[14]*s0) * inv

	r[3] = (-m[1]*c3 + m[5]*c1 - m[9]*c0) * inv
	r[7] = (m[0]*c3 - m[4]*c1 + m[8]*c0) * inv
	r[11] = (-m[3]*s3 + m[7]*s1 - m[11]*s0) * inv
	r[15] = (m[2]*s3 - m[6]*s1 + m[10]*s0) * inv
	return r
}
