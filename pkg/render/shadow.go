package render

import (
	"fmt"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

const (
	// ShadowBias is the default amount added to a fragment's light-space
	// depth before it is compared with the shadow buffer, to avoid
	// self-shadowing acne.
	ShadowBias = 43.34

	// AmbientFloor is the default light factor of an occluded fragment.
	AmbientFloor = 0.3
)

// ShadowRenderer draws a mesh in two passes: an orthographic depth pass
// from the light into ShadowBuffer, then a camera pass with the shadow
// technique reading it back.
type ShadowRenderer struct {
	Camera Camera
	// Light is the world-space direction toward the light. It must not
	// be parallel to Camera.Up.
	Light    math3d.Vec3
	Pipeline *Pipeline

	// Bias and Floor override ShadowBias and AmbientFloor when non-zero.
	Bias  float64
	Floor float64

	// Filled in by Render.
	ShadowBuffer *DepthBuffer
	DepthImage   *Framebuffer // color output of the light pass
	Transform    math3d.Mat4  // camera viewport space to light viewport space
}

// LightCamera returns the camera of the light pass: orthographic, looking
// at Camera.Center along -Light, with the camera's viewport.
func (r *ShadowRenderer) LightCamera() Camera {
	lc := r.Camera
	lc.Eye = r.Camera.Center.Add(r.Light.Normalize())
	lc.Orthographic = true
	return lc
}

// Render runs both passes. img and zbuffer receive the camera pass and
// must have the same extent.
func (r *ShadowRenderer) Render(mesh Mesh, img PixelBuffer, zbuffer *DepthBuffer) (RasterStats, error) {
	p := r.Pipeline
	if p == nil {
		p = &Pipeline{}
	}
	w, h := img.Width(), img.Height()

	lightCam := r.LightCamera()
	r.ShadowBuffer = NewDepthBuffer(w, h)
	r.DepthImage = NewFramebuffer(w, h)
	if _, err := p.Render(mesh, TechniqueDepth, CameraUniforms(lightCam, r.Light), r.DepthImage, r.ShadowBuffer); err != nil {
		return RasterStats{}, fmt.Errorf("light pass: %w", err)
	}

	r.Transform = lightCam.Transform().Mul(r.Camera.Transform().Inverse())

	u := CameraUniforms(r.Camera, r.Light)
	u.Shadow = r.ShadowBuffer
	u.ShadowTransform = r.Transform
	u.ShadowBias = r.Bias
	u.AmbientFloor = r.Floor
	stats, err := p.Render(mesh, TechniqueShadow, u, img, zbuffer)
	if err != nil {
		return RasterStats{}, fmt.Errorf("camera pass: %w", err)
	}
	return stats, nil
}
