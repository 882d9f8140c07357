package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

const eps = 1e-9

func assertVec3(t *testing.T, want, got math3d.Vec3, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestLookAt(t *testing.T) {
	tests := []struct {
		name   string
		eye    math3d.Vec3
		center math3d.Vec3
	}{
		{"default camera", math3d.V3(1, 1, 3), math3d.Zero3()},
		{"offset center", math3d.V3(1, 2, 5), math3d.V3(1, 2, 3)},
		{"from below", math3d.V3(-2, -1, 0.5), math3d.V3(0.5, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv := LookAt(tt.eye, tt.center, math3d.Up())

			assertVec3(t, math3d.V3(0, 0, tt.eye.Distance(tt.center)), mv.MulVec3(tt.eye), eps)
			assertVec3(t, math3d.Zero3(), mv.MulVec3(tt.center), eps)

			for i := range 3 {
				row := mv.Row(i).Vec3()
				assert.InDelta(t, 1, row.Len(), eps, "row %d is not unit length", i)
				assert.InDelta(t, 0, row.Dot(mv.Row((i+1)%3).Vec3()), eps, "rows %d and %d are not orthogonal", i, (i+1)%3)
			}
		})
	}
}

func TestProjection(t *testing.T) {
	p := Projection(PerspectiveCoeff(math3d.V3(0, 0, 4), math3d.Zero3()))
	assert.Equal(t, -0.25, p.Get(3, 2))

	v := p.MulVec4(math3d.V4(1, 2, 2, 1))
	assert.Equal(t, math3d.V4(1, 2, 2, 0.5), v)

	ortho := Projection(0)
	assert.Equal(t, math3d.Identity(), ortho)
}

func TestViewport(t *testing.T) {
	vp := Viewport(10, 20, 100, 50)

	assertVec3(t, math3d.V3(10, 20, 0), vp.MulVec3(math3d.V3(-1, -1, -1)), eps)
	assertVec3(t, math3d.V3(110, 70, DepthRange), vp.MulVec3(math3d.V3(1, 1, 1)), eps)
	assertVec3(t, math3d.V3(60, 45, DepthRange/2), vp.MulVec3(math3d.Zero3()), eps)
}

func TestViewportRoundTrip(t *testing.T) {
	vp := Viewport(12, 7, 300, 180)
	inv := vp.Inverse()
	for _, p := range []math3d.Vec3{
		math3d.V3(-1, -1, -1),
		math3d.V3(1, 1, 1),
		math3d.V3(0.25, -0.5, 0.75),
		math3d.V3(-0.9, 0.1, 0),
	} {
		assertVec3(t, p, inv.MulVec3(vp.MulVec3(p)), 1e-12)
	}
}

func TestViewportDepthMonotonic(t *testing.T) {
	vp := Viewport(0, 0, 64, 64)
	prev := math.Inf(-1)
	for z := -1.0; z <= 1.0; z += 0.125 {
		d := vp.MulVec3(math3d.V3(0, 0, z)).Z
		assert.Greater(t, d, prev)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, DepthRange)
		prev = d
	}
}

func TestCamera(t *testing.T) {
	cam := NewCamera(800, 600)
	assert.Equal(t, math3d.V3(1, 1, 3), cam.Eye)
	assert.Equal(t, [4]int{100, 75, 600, 450}, [4]int{cam.X, cam.Y, cam.W, cam.H})
	assert.InDelta(t, -1/math.Sqrt(11), cam.Projection().Get(3, 2), eps)

	want := cam.Viewport().Mul(cam.Projection()).Mul(cam.ModelView())
	assert.True(t, want.ApproxEqual(cam.Transform(), eps))

	cam.Orthographic = true
	assert.Equal(t, 0.0, cam.Projection().Get(3, 2))
}

func TestCameraOrbit(t *testing.T) {
	cam := NewCamera(100, 100)
	d := cam.Distance()

	orbited := cam.Orbit(math.Pi/3, 0.2)
	assert.InDelta(t, d, orbited.Distance(), 1e-9)
	assert.NotEqual(t, cam.Eye, orbited.Eye)

	// Pitch stops short of the pole.
	top := cam.Orbit(0, math.Pi)
	assert.Less(t, top.Eye.Sub(top.Center).Normalize().Y, 1.0)

	zoomed := cam.Zoom(2)
	assert.InDelta(t, 2*d, zoomed.Distance(), 1e-9)

	same := Camera{Eye: math3d.Zero3(), Center: math3d.Zero3()}
	assert.Equal(t, same, same.Orbit(1, 1))
}
