// Package shadow builds projection matrices that flatten geometry onto a
// plane as seen from a light.
package shadow

import (
	"github.com/Faultbox/rigview/pkg/math"
)

// Lift is how far the flattened geometry is raised above its plane to avoid
// z-fighting with the floor.
const Lift = 0.01

// PlaneMatrix returns the matrix projecting points onto the plane
// a*x + b*y + c*z + d = 0 along rays from light. A light with w = 0 is
// directional, w = 1 a point light.
func PlaneMatrix(plane, light [4]float32) math.Mat4 {
	dot := plane[0]*light[0] + plane[1]*light[1] + plane[2]*light[2] + plane[3]*light[3]

	var m math.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			v := -light[row] * plane[col]
			if row == col {
				v += dot
			}
			m[col*4+row] = v
		}
	}
	return m
}

// PlanarMatrix projects onto the horizontal plane y = planeY and lifts the
// result by Lift.
func PlanarMatrix(light [4]float32, planeY float32) math.Mat4 {
	flat := PlaneMatrix([4]float32{0, 1, 0, -planeY}, light)
	return math.Translate(0, Lift, 0).Mul(flat)
}
