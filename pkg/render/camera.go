package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Camera describes where a pass looks from and where its image lands.
type Camera struct {
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3

	// Orthographic disables the perspective coefficient.
	Orthographic bool

	// Viewport rectangle in pixels
	X, Y, W, H int
}

// NewCamera returns a perspective camera at (1, 1, 3) looking at the
// origin, with a viewport covering the central 3/4 of a width x height
// image.
func NewCamera(width, height int) Camera {
	c := Camera{
		Eye:    math3d.V3(1, 1, 3),
		Center: math3d.Zero3(),
		Up:     math3d.Up(),
	}
	return c.WithImage(width, height)
}

// WithImage places the viewport in the central 3/4 of a width x height
// image.
func (c Camera) WithImage(width, height int) Camera {
	c.X, c.Y = width/8, height/8
	c.W, c.H = width*3/4, height*3/4
	return c
}

// ModelView returns LookAt(Eye, Center, Up).
func (c Camera) ModelView() math3d.Mat4 {
	return LookAt(c.Eye, c.Center, c.Up)
}

// Projection returns the projection matrix of the camera.
func (c Camera) Projection() math3d.Mat4 {
	if c.Orthographic {
		return Projection(0)
	}
	return Projection(PerspectiveCoeff(c.Eye, c.Center))
}

// Viewport returns the viewport matrix of the camera.
func (c Camera) Viewport() math3d.Mat4 {
	return Viewport(c.X, c.Y, c.W, c.H)
}

// Transform returns Viewport * Projection * ModelView.
func (c Camera) Transform() math3d.Mat4 {
	return c.Viewport().Mul(c.Projection()).Mul(c.ModelView())
}

// Distance returns |Eye - Center|.
func (c Camera) Distance() float64 {
	return c.Eye.Distance(c.Center)
}

// Orbit rotates the eye around the center by yaw (around the world Y
// axis) and pitch, keeping the distance. Pitch is clamped short of the
// poles so Up never becomes parallel to the view direction.
func (c Camera) Orbit(yaw, pitch float64) Camera {
	offset := c.Eye.Sub(c.Center)
	r := offset.Len()
	if r == 0 {
		return c
	}

	curYaw := math.Atan2(offset.X, offset.Z)
	curPitch := math.Asin(offset.Y / r)

	newYaw := curYaw + yaw
	newPitch := curPitch + pitch

	// Clamp pitch to avoid gimbal lock issues
	const maxPitch = math.Pi/2 - 0.01
	newPitch = math.Max(-maxPitch, math.Min(maxPitch, newPitch))

	c.Eye = c.Center.Add(math3d.V3(
		r*math.Cos(newPitch)*math.Sin(newYaw),
		r*math.Sin(newPitch),
		r*math.Cos(newPitch)*math.Cos(newYaw),
	))
	return c
}

// Zoom scales the eye distance by factor.
func (c Camera) Zoom(factor float64) Camera {
	c.Eye = c.Center.Add(c.Eye.Sub(c.Center).Scale(factor))
	return c
}
