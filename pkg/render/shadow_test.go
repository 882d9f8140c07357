package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// occluderScene is a small square at z=0.5 floating over a larger one
// at z=0.
func occluderScene() *testMesh {
	m := newTestMesh()
	m.addSquareZ(0.5, 0.25)
	m.addSquareZ(0, 0.5)
	return m
}

func TestShadowRendererLightCamera(t *testing.T) {
	r := &ShadowRenderer{
		Camera: NewCamera(100, 100),
		Light:  math3d.V3(0, 0, 2),
	}
	lc := r.LightCamera()
	assert.True(t, lc.Orthographic)
	assertVec3(t, math3d.V3(0, 0, 1), lc.Eye, eps)
	assert.Equal(t, r.Camera.Center, lc.Center)
	assert.Equal(t, [4]int{r.Camera.X, r.Camera.Y, r.Camera.W, r.Camera.H}, [4]int{lc.X, lc.Y, lc.W, lc.H})
}

func TestShadowRenderer(t *testing.T) {
	cam := frontCamera(100, 100, true)
	r := &ShadowRenderer{
		Camera:   cam,
		Light:    math3d.V3(1, 0, 1),
		Pipeline: &Pipeline{},
	}
	img := NewFramebuffer(100, 100)
	zbuf := NewDepthBuffer(100, 100)

	stats, err := r.Render(occluderScene(), img, zbuf)
	require.NoError(t, err)
	assert.Positive(t, stats.Written)
	assert.Equal(t, 8, r.Pipeline.Stats.Triangles)

	require.NotNil(t, r.ShadowBuffer)
	assert.Positive(t, written(r.ShadowBuffer))
	assert.NotEqual(t, Color{}, r.DepthImage.Get(50, 50))

	want := r.LightCamera().Transform().Mul(cam.Transform().Inverse())
	assert.True(t, want.ApproxEqual(r.Transform, 1e-12))

	// The ray toward the light from x=-0.4 on the lower square passes
	// through the upper one. From x=0.4 it does not.
	shadowed := img.Get(34, 49)
	lit := img.Get(64, 49)
	assert.Equal(t, uint8(255), lit.R)
	assert.Less(t, shadowed.R, lit.R)

	a := 1 / math.Sqrt2
	assert.InDelta(t, phongChannel(20, 255, AmbientFloor*1.8*a), shadowed.R, 1)
}

func TestShadowRendererBiasAndFloor(t *testing.T) {
	render := func(bias, floor float64) Color {
		r := &ShadowRenderer{
			Camera: frontCamera(100, 100, true),
			Light:  math3d.V3(1, 0, 1),
			Bias:   bias,
			Floor:  floor,
		}
		img := NewFramebuffer(100, 100)
		_, err := r.Render(occluderScene(), img, NewDepthBuffer(100, 100))
		require.NoError(t, err)
		return img.Get(34, 49)
	}

	a := 1 / math.Sqrt2
	assert.InDelta(t, phongChannel(20, 255, AmbientFloor*1.8*a), render(0, 0).R, 1)
	assert.InDelta(t, phongChannel(20, 255, 0.6*1.8*a), render(0, 0.6).R, 1)
	// A bias wider than the whole depth range lights everything.
	assert.Equal(t, uint8(255), render(2*DepthRange, 0).R)
	// Renderers do not share settings.
	assert.InDelta(t, phongChannel(20, 255, AmbientFloor*1.8*a), render(0, 0).R, 1)
}

func TestShadowRendererNoOccluder(t *testing.T) {
	mesh := newTestMesh()
	mesh.addSquareZ(0, 0.5)

	r := &ShadowRenderer{Camera: frontCamera(100, 100, true), Light: math3d.V3(0, 0, 1)}
	img := NewFramebuffer(100, 100)
	_, err := r.Render(mesh, img, NewDepthBuffer(100, 100))
	require.NoError(t, err)

	for y := 35; y < 65; y++ {
		for x := 35; x < 65; x++ {
			require.Equal(t, ColorWhite, img.Get(x, y), "pixel (%d, %d)", x, y)
		}
	}
}
