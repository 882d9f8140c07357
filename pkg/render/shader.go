package render

import (
	"fmt"
	"strings"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Mesh is the geometry and material source read by the shaders.
// *models.Mesh implements it.
type Mesh interface {
	VertexCount() int
	FaceCount() int
	Position(face, corner int) math3d.Vec3
	Normal(face, corner int) math3d.Vec3
	UV(face, corner int) math3d.Vec2
	Diffuse(uv math3d.Vec2) Color
	NormalMap(uv math3d.Vec2) math3d.Vec3
	Specular(uv math3d.Vec2) float64
}

// tangentSpaceMesh is implemented by meshes whose normal map may hold
// tangent-space normals.
type tangentSpaceMesh interface {
	TangentSpaceNormals() bool
}

// Shader is a programmable vertex/fragment pair.
//
// Vertex is called exactly three times per face, for corners 0, 1 and 2
// in order. It stores whatever the fragment stage needs in per-corner
// varyings and returns the corner in viewport space as a homogeneous
// point, without dividing by w.
//
// Fragment is called for every pixel of the face that passes the depth
// test, with the barycentric weights of that pixel. Returning discard
// leaves both the pixel and the depth untouched.
//
// Varyings live in the shader value and are overwritten by every face,
// so a shader must not be shared between goroutines.
type Shader interface {
	Vertex(mesh Mesh, face, corner int) math3d.Vec4
	Fragment(bar math3d.Vec3) (c Color, discard bool)
}

// Uniforms are the per-pass inputs shared by every face.
type Uniforms struct {
	ModelView  math3d.Mat4
	Projection math3d.Mat4
	Viewport   math3d.Mat4

	// Light is the world-space direction toward the light.
	Light math3d.Vec3

	// Shadow and ShadowTransform are only read by the shadow technique.
	// ShadowTransform maps camera viewport space to light viewport space.
	Shadow          *DepthBuffer
	ShadowTransform math3d.Mat4
	// ShadowBias and AmbientFloor default to the package constants when
	// zero.
	ShadowBias   float64
	AmbientFloor float64
}

// CameraUniforms fills in the three matrices of cam and the light.
func CameraUniforms(cam Camera, light math3d.Vec3) Uniforms {
	return Uniforms{
		ModelView:  cam.ModelView(),
		Projection: cam.Projection(),
		Viewport:   cam.Viewport(),
		Light:      light,
	}
}

// transforms caches the matrix products every technique needs.
type transforms struct {
	pm    math3d.Mat4 // Projection * ModelView
	pmIT  math3d.Mat4 // (Projection * ModelView)^-T
	vpm   math3d.Mat4 // Viewport * Projection * ModelView
	light math3d.Vec3 // normalized world-space light
	lpm   math3d.Vec3 // light direction transformed by pm, normalized
}

func newTransforms(u Uniforms) transforms {
	pm := u.Projection.Mul(u.ModelView)
	light := u.Light.Normalize()
	return transforms{
		pm:    pm,
		pmIT:  pm.InverseTranspose(),
		vpm:   u.Viewport.Mul(pm),
		light: light,
		lpm:   pm.MulVec3Dir(light).Normalize(),
	}
}

// Technique selects a shader implementation.
type Technique int

const (
	TechniqueFlat Technique = iota
	TechniqueGouraud
	TechniquePhong
	TechniqueToon
	TechniqueDepth
	TechniqueShadow
	TechniqueTextured
)

var techniqueNames = [...]string{
	TechniqueFlat:     "flat",
	TechniqueGouraud:  "gouraud",
	TechniquePhong:    "phong",
	TechniqueToon:     "toon",
	TechniqueDepth:    "depth",
	TechniqueShadow:   "shadow",
	TechniqueTextured: "textured",
}

func (t Technique) String() string {
	if t < 0 || int(t) >= len(techniqueNames) {
		return fmt.Sprintf("Technique(%d)", int(t))
	}
	return techniqueNames[t]
}

// Techniques returns every technique in declaration order.
func Techniques() []Technique {
	out := make([]Technique, len(techniqueNames))
	for i := range out {
		out[i] = Technique(i)
	}
	return out
}

// ParseTechnique returns the technique with the given name.
func ParseTechnique(name string) (Technique, error) {
	for i, n := range techniqueNames {
		if strings.EqualFold(n, name) {
			return Technique(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shader %q (want one of %s)", name, strings.Join(techniqueNames[:], ", "))
}

// NewShader builds a shader for technique t. The shadow technique needs
// u.Shadow; ShadowRenderer prepares it.
func NewShader(t Technique, u Uniforms) (Shader, error) {
	tr := newTransforms(u)
	switch t {
	case TechniqueFlat:
		return &FlatShader{tr: tr}, nil
	case TechniqueGouraud:
		return &GouraudShader{tr: tr}, nil
	case TechniqueToon:
		return &ToonShader{GouraudShader{tr: tr}}, nil
	case TechniqueTextured:
		return &TexturedShader{GouraudShader: GouraudShader{tr: tr}}, nil
	case TechniquePhong:
		return &PhongShader{tr: tr}, nil
	case TechniqueDepth:
		return &DepthShader{tr: tr}, nil
	case TechniqueShadow:
		if u.Shadow == nil {
			return nil, fmt.Errorf("shadow shader needs a shadow buffer")
		}
		s := &ShadowShader{
			PhongShader: PhongShader{tr: tr},
			shadow:      u.Shadow,
			mshadow:     u.ShadowTransform,
			bias:        u.ShadowBias,
			floor:       u.AmbientFloor,
		}
		if s.bias == 0 {
			s.bias = ShadowBias
		}
		if s.floor == 0 {
			s.floor = AmbientFloor
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown technique %v", t)
	}
}
