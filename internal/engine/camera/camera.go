// Package camera provides the orbiting eye used by the viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/rigview/pkg/math"
)

// Step sizes for keyboard control.
const (
	AngleStep  = 2.0 // degrees
	RadiusStep = 0.5
	HeightStep = 0.5
)

// Eye orbits the vertical axis at a fixed radius and height, always looking
// at (0, LookAtY, 0).
type Eye struct {
	Angle   float32 // degrees around Y, 0 looks down -Z from +Z
	Radius  float32
	Height  float32
	LookAtY float32

	MinRadius float32
}

// NewEye creates an eye at the given orbit parameters.
func NewEye(angle, radius, height, lookAtY float32) *Eye {
	return &Eye{
		Angle:     angle,
		Radius:    radius,
		Height:    height,
		LookAtY:   lookAtY,
		MinRadius: RadiusStep,
	}
}

// Position returns the eye position in world space.
func (e *Eye) Position() math.Vec3 {
	return math.RotateY(e.Angle * math32.Pi / 180).TransformVec3(math.Vec3{Y: e.Height, Z: e.Radius})
}

// Target returns the point the eye looks at.
func (e *Eye) Target() math.Vec3 {
	return math.Vec3{Y: e.LookAtY}
}

// ViewMatrix returns the view matrix for this eye.
func (e *Eye) ViewMatrix() math.Mat4 {
	return math.LookAt(e.Position(), e.Target(), math.Vec3{Y: 1})
}

// Rotate turns the eye around the vertical axis by delta degrees.
func (e *Eye) Rotate(delta float32) {
	e.Angle = math32.Mod(e.Angle+delta, 360)
}

// Zoom moves the eye towards (negative delta) or away from the target.
func (e *Eye) Zoom(delta float32) {
	e.Radius += delta
	if e.Radius < e.MinRadius {
		e.Radius = e.MinRadius
	}
}

// Raise moves the eye up or down.
func (e *Eye) Raise(delta float32) {
	e.Height += delta
}

// Projection returns a perspective matrix for the given field of view in
// degrees and viewport size.
func Projection(fovDeg float32, width, height int, near, far float32) math.Mat4 {
	if height <= 0 {
		height = 1
	}
	return math.Perspective(fovDeg*math32.Pi/180, float32(width)/float32(height), near, far)
}
