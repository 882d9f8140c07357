// Package render implements the tinyrender software pipeline: matrix
// construction, programmable shaders, a barycentric triangle rasterizer
// with a depth buffer and two-pass shadow mapping.
package render

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// DepthRange is the depth interval [0, DepthRange] produced by Viewport.
const DepthRange = 255.0

// LookAt builds the model-view matrix of a camera at eye looking at
// center. The result maps eye to (0, 0, |eye-center|). up must not be
// parallel to eye-center.
func LookAt(eye, center, up math3d.Vec3) math3d.Mat4 {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x).Normalize()

	basis := math3d.Identity()
	for i := range 3 {
		basis.Set(0, i, x.At(i))
		basis.Set(1, i, y.At(i))
		basis.Set(2, i, z.At(i))
	}
	return basis.Mul(math3d.Translate(center.Negate()))
}

// Projection returns the identity with M[3][2] = coeff. Use
// PerspectiveCoeff for a perspective camera and 0 for orthographic.
func Projection(coeff float64) math3d.Mat4 {
	m := math3d.Identity()
	m.Set(3, 2, coeff)
	return m
}

// PerspectiveCoeff returns -1/|eye-center|.
func PerspectiveCoeff(eye, center math3d.Vec3) float64 {
	return -1 / eye.Distance(center)
}

// Viewport maps [-1,1]^3 onto [x,x+w] x [y,y+h] x [0,DepthRange].
func Viewport(x, y, w, h int) math3d.Mat4 {
	m := math3d.Identity()
	m.Set(0, 3, float64(x)+float64(w)/2)
	m.Set(1, 3, float64(y)+float64(h)/2)
	m.Set(2, 3, DepthRange/2)

	m.Set(0, 0, float64(w)/2)
	m.Set(1, 1, float64(h)/2)
	m.Set(2, 2, DepthRange/2)
	return m
}
