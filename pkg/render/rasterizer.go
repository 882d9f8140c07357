package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// DegenerateEpsilon is the smallest |u.z| (twice the signed screen area)
// for which barycentric weights are computed. Smaller triangles get the
// (-1, 1, 1) sentinel and cover no pixels.
var DegenerateEpsilon = 1e-2

// RasterStats counts what happened to the pixels of one or more
// triangles.
type RasterStats struct {
	Triangles     int // Triangles submitted
	PixelsTested  int // Pixels inside the clamped bounding boxes
	Outside       int // Rejected for a negative weight (includes degenerate triangles)
	DepthRejected int // Rejected by the depth test
	Discarded     int // Discarded by the fragment stage
	Written       int // Fragments written to the image and depth buffer
}

// Add accumulates o into s.
func (s *RasterStats) Add(o RasterStats) {
	s.Triangles += o.Triangles
	s.PixelsTested += o.PixelsTested
	s.Outside += o.Outside
	s.DepthRejected += o.DepthRejected
	s.Discarded += o.Discarded
	s.Written += o.Written
}

// Barycentric returns the weights of p with respect to the 2D triangle
// abc. Interior points get three positive weights summing to 1. For a
// triangle whose doubled area is at most DegenerateEpsilon the result is
// (-1, 1, 1), which callers reject like any exterior point.
func Barycentric(a, b, c, p math3d.Vec2) math3d.Vec3 {
	sx := math3d.V3(c.X-a.X, b.X-a.X, a.X-p.X)
	sy := math3d.V3(c.Y-a.Y, b.Y-a.Y, a.Y-p.Y)
	u := sx.Cross(sy)
	if math.Abs(u.Z) > DegenerateEpsilon {
		return math3d.V3(1-(u.X+u.Y)/u.Z, u.Y/u.Z, u.X/u.Z)
	}
	return math3d.V3(-1, 1, 1)
}

// Triangle rasterizes one triangle given in viewport-space homogeneous
// coordinates. Every pixel of the bounding box, clamped to img, is
// tested: pixels outside the triangle or not strictly closer than the
// stored depth are skipped, the rest go through the fragment stage and,
// unless discarded, update img and depth. depth must cover img.
func Triangle(pts [3]math3d.Vec4, shader Shader, img PixelBuffer, depth *DepthBuffer) RasterStats {
	stats := RasterStats{Triangles: 1}

	var pts2 [3]math3d.Vec2
	for i, p := range pts {
		pts2[i] = math3d.V2(p.X/p.W, p.Y/p.W)
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts2 {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	// A corner at w=0 yields NaN; such a triangle covers nothing.
	if math.IsNaN(minX + minY + maxX + maxY) {
		return stats
	}
	minX, minY = math.Max(0, minX), math.Max(0, minY)
	maxX = math.Min(float64(img.Width()-1), maxX)
	maxY = math.Min(float64(img.Height()-1), maxY)
	if minX > maxX || minY > maxY {
		return stats
	}

	for x := int(minX); x <= int(maxX); x++ {
		for y := int(minY); y <= int(maxY); y++ {
			stats.PixelsTested++

			c := Barycentric(pts2[0], pts2[1], pts2[2], math3d.V2(float64(x), float64(y)))
			if c.X < 0 || c.Y < 0 || c.Z < 0 {
				stats.Outside++
				continue
			}

			z := pts[0].Z*c.X + pts[1].Z*c.Y + pts[2].Z*c.Z
			w := pts[0].W*c.X + pts[1].W*c.Y + pts[2].W*c.Z
			fragDepth := clamp(z/w, 0, DepthRange)
			if depth.Get(x, y) >= fragDepth {
				stats.DepthRejected++
				continue
			}

			color, discard := shader.Fragment(c)
			if discard {
				stats.Discarded++
				continue
			}
			depth.Set(x, y, fragDepth)
			img.Set(x, y, color)
			stats.Written++
		}
	}
	return stats
}
