package models

import (
	"image/color"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Material holds the maps sampled by the shaders. A nil map falls back
// to a neutral value: BaseColor for diffuse, +z for normals and an
// exponent of 1 for specular.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range, used when Diffuse is nil
	Diffuse   *Texture
	Normal    *Texture
	Specular  *Texture

	// TangentSpace marks Normal as a tangent-space map rather than an
	// object-space one.
	TangentSpace bool
}

// DefaultMaterial returns a white material without maps.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		BaseColor: [4]float64{1, 1, 1, 1},
	}
}

func (m *Material) diffuse(uv math3d.Vec2) color.RGBA {
	if m.Diffuse == nil {
		return color.RGBA{
			R: uint8(m.BaseColor[0] * 255),
			G: uint8(m.BaseColor[1] * 255),
			B: uint8(m.BaseColor[2] * 255),
			A: uint8(m.BaseColor[3] * 255),
		}
	}
	return m.Diffuse.Sample(uv)
}

// normal decodes an RGB texel into a vector in [-1, 1]^3.
func (m *Material) normal(uv math3d.Vec2) math3d.Vec3 {
	if m.Normal == nil {
		return math3d.V3(0, 0, 1)
	}
	c := m.Normal.Sample(uv)
	return math3d.V3(
		float64(c.R)/255*2-1,
		float64(c.G)/255*2-1,
		float64(c.B)/255*2-1,
	)
}

func (m *Material) specular(uv math3d.Vec2) float64 {
	if m.Specular == nil {
		return 1
	}
	return float64(m.Specular.Sample(uv).R)
}
