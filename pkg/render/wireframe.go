package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Wireframe draws 3D line art through a camera transform.
type Wireframe struct {
	transform math3d.Mat4
	fb        *Framebuffer
}

// NewWireframe creates a wireframe renderer drawing into fb through cam.
func NewWireframe(cam Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		transform: cam.Transform(),
		fb:        fb,
	}
}

// project maps p to screen space. Points on or behind the eye plane are
// not visible.
func (w *Wireframe) project(p math3d.Vec3) (s math3d.Vec3, visible bool) {
	v := w.transform.MulVec4(math3d.V4FromV3(p, 1))
	if v.W <= 0 {
		return s, false
	}
	s = v.PerspectiveDivide()
	if math.IsInf(s.X, 0) || math.IsInf(s.Y, 0) || math.IsNaN(s.X) || math.IsNaN(s.Y) {
		return s, false
	}
	return s, true
}

// DrawLine3D draws a line in world space, clipped to the framebuffer.
// Lines with an endpoint behind the eye are skipped.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	a, vis1 := w.project(p1)
	b, vis2 := w.project(p2)
	if !vis1 || !vis2 {
		return
	}
	x0, y0, x1, y1, ok := clipSegment(a.X, a.Y, b.X, b.Y, float64(w.fb.W-1), float64(w.fb.H-1))
	if !ok {
		return
	}
	w.fb.DrawLine(int(x0), int(y0), int(x1), int(y1), color)
}

// clipSegment clips a segment to [0, maxX] x [0, maxY] (Liang-Barsky).
// ok is false when nothing of it is inside.
func clipSegment(x0, y0, x1, y1, maxX, maxY float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, x0},
		{dx, maxX - x0},
		{-dy, y0},
		{dy, maxY - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// DrawMesh draws the three edges of every face.
func (w *Wireframe) DrawMesh(mesh Mesh, color Color) {
	for face := range mesh.FaceCount() {
		for corner := range 3 {
			w.DrawLine3D(mesh.Position(face, corner), mesh.Position(face, (corner+1)%3), color)
		}
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}

// DrawPoint draws a point as a small cross.
func (w *Wireframe) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	w.DrawLine3D(math3d.V3(pos.X-h, pos.Y, pos.Z), math3d.V3(pos.X+h, pos.Y, pos.Z), color)
	w.DrawLine3D(math3d.V3(pos.X, pos.Y-h, pos.Z), math3d.V3(pos.X, pos.Y+h, pos.Z), color)
	w.DrawLine3D(math3d.V3(pos.X, pos.Y, pos.Z-h), math3d.V3(pos.X, pos.Y, pos.Z+h), color)
}
