package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

func countColor(fb *Framebuffer, c Color) int {
	n := 0
	for _, p := range fb.Pixels {
		if p == c {
			n++
		}
	}
	return n
}

func TestWireframeDrawMesh(t *testing.T) {
	fb := NewFramebuffer(100, 100)
	w := NewWireframe(frontCamera(100, 100, true), fb)

	mesh := newTestMesh()
	mesh.addSquareZ(0, 0.5)
	w.DrawMesh(mesh, ColorGreen)

	// Square outline at x, y in [30, 68] plus its diagonal.
	assert.Equal(t, ColorGreen, fb.Get(30, 30))
	assert.Equal(t, ColorGreen, fb.Get(68, 68))
	assert.Equal(t, ColorGreen, fb.Get(49, 30))
	assert.Equal(t, ColorGreen, fb.Get(50, 50))
	assert.Equal(t, Color{}, fb.Get(40, 60))
	assert.Positive(t, countColor(fb, ColorGreen))
}

func TestWireframeBehindEye(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	w := NewWireframe(frontCamera(64, 64, false), fb)

	// w = 1 - z/3 is negative beyond the eye at z=3.
	w.DrawLine3D(math3d.V3(0, 0, 0), math3d.V3(0, 0, 5), ColorWhite)
	assert.Zero(t, countColor(fb, ColorWhite))

	w.DrawLine3D(math3d.V3(-0.5, 0, 0), math3d.V3(0.5, 0, 0), ColorWhite)
	assert.Positive(t, countColor(fb, ColorWhite))
}

func TestWireframeAxesAndPoint(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	w := NewWireframe(NewCamera(64, 64), fb)
	w.DrawAxes(1)
	assert.Positive(t, countColor(fb, ColorRed))
	assert.Positive(t, countColor(fb, ColorGreen))
	assert.Positive(t, countColor(fb, ColorBlue))

	w.DrawPoint(math3d.Zero3(), 0.2, ColorOrange)
	assert.Positive(t, countColor(fb, ColorOrange))
}

func TestClipSegment(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           [4]float64
		ok             bool
	}{
		{"inside", 1, 2, 8, 9, [4]float64{1, 2, 8, 9}, true},
		{"crosses right edge", 5, 5, 15, 5, [4]float64{5, 5, 9, 5}, true},
		{"both ends far out", -1e12, -1e12, 1e12, 1e12, [4]float64{0, 0, 9, 9}, true},
		{"left of the buffer", -5, 1, -1, 8, [4]float64{}, false},
		{"misses a corner", -5, 5, 5, 20, [4]float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1, ok := clipSegment(tt.x0, tt.y0, tt.x1, tt.y1, 9, 9)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			got := [4]float64{x0, y0, x1, y1}
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-6, "component %d", i)
			}
		})
	}
}

func TestWireframeNearEyePlane(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	w := NewWireframe(frontCamera(64, 64, false), fb)

	// The far end projects to x of order 1e9 pixels; only the visible
	// part is walked.
	w.DrawLine3D(math3d.V3(0, 0, 0), math3d.V3(0.5, 0, 3-1e-9), ColorWhite)
	n := countColor(fb, ColorWhite)
	assert.Positive(t, n)
	assert.LessOrEqual(t, n, 64)
}
