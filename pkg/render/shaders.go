package render

import (
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// FlatShader lights each face uniformly with the normal of its
// projected triangle.
type FlatShader struct {
	tr  transforms
	ndc [3]math3d.Vec3
}

func (s *FlatShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	p := math3d.V4FromV3(mesh.Position(face, corner), 1)
	s.ndc[corner] = s.tr.pm.MulVec4(p).PerspectiveDivide()
	return s.tr.vpm.MulVec4(p)
}

func (s *FlatShader) Fragment(bar math3d.Vec3) (Color, bool) {
	n := s.ndc[1].Sub(s.ndc[0]).Cross(s.ndc[2].Sub(s.ndc[0])).Normalize()
	return MultiplyColor(ColorWhite, n.Dot(s.tr.light)), false
}

// GouraudShader interpolates per-vertex diffuse intensity.
type GouraudShader struct {
	tr        transforms
	intensity [3]float64
}

func (s *GouraudShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	s.intensity[corner] = clamp(mesh.Normal(face, corner).Dot(s.tr.light), 0, 1)
	return s.tr.vpm.MulVec4(math3d.V4FromV3(mesh.Position(face, corner), 1))
}

func (s *GouraudShader) Fragment(bar math3d.Vec3) (Color, bool) {
	return MultiplyColor(ColorWhite, s.interpolate(bar)), false
}

func (s *GouraudShader) interpolate(bar math3d.Vec3) float64 {
	return s.intensity[0]*bar.X + s.intensity[1]*bar.Y + s.intensity[2]*bar.Z
}

// ToonShader quantizes Gouraud intensity into bands.
type ToonShader struct {
	GouraudShader
}

func (s *ToonShader) Fragment(bar math3d.Vec3) (Color, bool) {
	return MultiplyColor(ColorOrange, ToonBand(s.interpolate(bar))), false
}

// ToonBand snaps an intensity to the nearest lower band. Intensities of
// 0.15 and below are returned unchanged.
func ToonBand(intensity float64) float64 {
	switch {
	case intensity > .85:
		return 1
	case intensity > .60:
		return .80
	case intensity > .45:
		return .60
	case intensity > .30:
		return .45
	case intensity > .15:
		return .30
	default:
		return intensity
	}
}

// TexturedShader modulates the diffuse map by Gouraud intensity.
// Fully transparent texels are discarded.
type TexturedShader struct {
	GouraudShader
	mesh Mesh
	uv   [3]math3d.Vec2
}

func (s *TexturedShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	s.mesh = mesh
	s.uv[corner] = mesh.UV(face, corner)
	return s.GouraudShader.Vertex(mesh, face, corner)
}

func (s *TexturedShader) Fragment(bar math3d.Vec3) (Color, bool) {
	c := s.mesh.Diffuse(math3d.Interpolate2(s.uv[0], s.uv[1], s.uv[2], bar))
	if c.A == 0 {
		return Color{}, true
	}
	return MultiplyColor(c, s.interpolate(bar)), false
}

// PhongShader shades per pixel from the normal and specular maps.
type PhongShader struct {
	tr      transforms
	mesh    Mesh
	tangent bool
	uv      [3]math3d.Vec2
	ndc     [3]math3d.Vec3
	nrm     [3]math3d.Vec3
}

func (s *PhongShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	s.mesh = mesh
	if tm, ok := mesh.(tangentSpaceMesh); ok {
		s.tangent = tm.TangentSpaceNormals()
	}
	p := math3d.V4FromV3(mesh.Position(face, corner), 1)
	s.uv[corner] = mesh.UV(face, corner)
	s.ndc[corner] = s.tr.pm.MulVec4(p).PerspectiveDivide()
	s.nrm[corner] = s.tr.pmIT.MulVec3Dir(mesh.Normal(face, corner))
	return s.tr.vpm.MulVec4(p)
}

func (s *PhongShader) Fragment(bar math3d.Vec3) (Color, bool) {
	uv, diff, spec := s.light(bar)
	c := s.mesh.Diffuse(uv)
	k := diff + .6*spec
	return Color{
		R: phongChannel(5, c.R, k),
		G: phongChannel(5, c.G, k),
		B: phongChannel(5, c.B, k),
		A: 255,
	}, false
}

// light returns the interpolated uv with the diffuse and specular terms
// at bar.
func (s *PhongShader) light(bar math3d.Vec3) (uv math3d.Vec2, diff, spec float64) {
	uv = math3d.Interpolate2(s.uv[0], s.uv[1], s.uv[2], bar)
	n := s.normal(bar, uv)
	l := s.tr.lpm
	r := n.Scale(2 * n.Dot(l)).Sub(l).Normalize()
	spec = math.Pow(math.Max(r.Z, 0), s.mesh.Specular(uv))
	diff = math.Max(0, n.Dot(l))
	return uv, diff, spec
}

// normal returns the shading normal in the space of Projection*ModelView.
func (s *PhongShader) normal(bar math3d.Vec3, uv math3d.Vec2) math3d.Vec3 {
	if !s.tangent {
		return s.tr.pmIT.MulVec3Dir(s.mesh.NormalMap(uv).Normalize()).Normalize()
	}

	// Darboux frame: solve for the directions in which u and v grow
	// across the triangle, then express the map normal in that basis.
	bn := math3d.Interpolate3(s.nrm[0], s.nrm[1], s.nrm[2], bar).Normalize()
	e1 := s.ndc[1].Sub(s.ndc[0])
	e2 := s.ndc[2].Sub(s.ndc[0])
	a := math3d.Identity()
	for i := range 3 {
		a.Set(0, i, e1.At(i))
		a.Set(1, i, e2.At(i))
		a.Set(2, i, bn.At(i))
	}
	ai := a.Inverse()
	ti := ai.MulVec3Dir(math3d.V3(s.uv[1].X-s.uv[0].X, s.uv[2].X-s.uv[0].X, 0)).Normalize()
	tj := ai.MulVec3Dir(math3d.V3(s.uv[1].Y-s.uv[0].Y, s.uv[2].Y-s.uv[0].Y, 0)).Normalize()

	m := s.mesh.NormalMap(uv)
	return ti.Scale(m.X).Add(tj.Scale(m.Y)).Add(bn.Scale(m.Z)).Normalize()
}

// DepthShader writes each pixel's viewport depth as a gray level.
type DepthShader struct {
	tr  transforms
	tri [3]math3d.Vec3
}

func (s *DepthShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	p := s.tr.vpm.MulVec4(math3d.V4FromV3(mesh.Position(face, corner), 1))
	s.tri[corner] = p.PerspectiveDivide()
	return p
}

func (s *DepthShader) Fragment(bar math3d.Vec3) (Color, bool) {
	p := math3d.Interpolate3(s.tri[0], s.tri[1], s.tri[2], bar)
	return MultiplyColor(ColorWhite, p.Z/DepthRange), false
}

// ShadowShader is a PhongShader darkened where the shadow buffer shows
// an occluder between the pixel and the light.
type ShadowShader struct {
	PhongShader
	shadow  *DepthBuffer
	mshadow math3d.Mat4
	bias    float64
	floor   float64
	tri     [3]math3d.Vec3
}

func (s *ShadowShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	p := s.PhongShader.Vertex(mesh, face, corner)
	s.tri[corner] = p.PerspectiveDivide()
	return p
}

func (s *ShadowShader) Fragment(bar math3d.Vec3) (Color, bool) {
	p := math3d.Interpolate3(s.tri[0], s.tri[1], s.tri[2], bar)
	sb := s.mshadow.MulVec4(math3d.V4FromV3(p, 1)).PerspectiveDivide()
	shadow := shadowFactor(s.shadow, sb, s.bias, s.floor)

	uv, diff, spec := s.light(bar)
	c := s.mesh.Diffuse(uv)
	k := shadow * (1.2*diff + .6*spec)
	return Color{
		R: phongChannel(20, c.R, k),
		G: phongChannel(20, c.G, k),
		B: phongChannel(20, c.B, k),
		A: 255,
	}, false
}

// shadowFactor returns floor when the shadow buffer holds a depth more
// than bias above p, and 1 otherwise. Points outside the buffer are lit.
func shadowFactor(buf *DepthBuffer, p math3d.Vec3, bias, floor float64) float64 {
	x, y := int(p.X), int(p.Y)
	if p.X < 0 || p.Y < 0 || x >= buf.W || y >= buf.H {
		return 1
	}
	if buf.Get(x, y) <= p.Z+bias {
		return 1
	}
	return floor
}

// MultiplyColor scales the RGB channels of c by k clamped to [0, 1].
func MultiplyColor(c Color, k float64) Color {
	k = clamp(k, 0, 1)
	return Color{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: c.A,
	}
}

func phongChannel(ambient float64, c uint8, k float64) uint8 {
	return uint8(math.Min(ambient+float64(c)*k, 255))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
