// Package models provides mesh loading (Wavefront OBJ and glTF/GLB) and
// the material maps sampled by the tinyrender shaders.
package models

import (
	"image/color"
	"math"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Mesh is a triangle mesh with separately indexed positions, texture
// coordinates and normals, as in a Wavefront OBJ file.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	UVs       []math3d.Vec2
	Normals   []math3d.Vec3
	Faces     []Face
	Material  Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Face holds per-corner indices into Positions, UVs and Normals.
type Face struct {
	V [3]int
	T [3]int
	N [3]int
}

// NewMesh creates an empty mesh with the default material.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Material: DefaultMaterial(),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]

	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of distinct positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Position returns the position of the given face corner.
func (m *Mesh) Position(face, corner int) math3d.Vec3 {
	return m.Positions[m.Faces[face].V[corner]]
}

// Normal returns the normal of the given face corner, or +z when the
// mesh has none.
func (m *Mesh) Normal(face, corner int) math3d.Vec3 {
	if len(m.Normals) == 0 {
		return math3d.V3(0, 0, 1)
	}
	return m.Normals[m.Faces[face].N[corner]]
}

// UV returns the texture coordinate of the given face corner, or the
// origin when the mesh has none.
func (m *Mesh) UV(face, corner int) math3d.Vec2 {
	if len(m.UVs) == 0 {
		return math3d.Vec2{}
	}
	return m.UVs[m.Faces[face].T[corner]]
}

// Diffuse samples the diffuse map.
func (m *Mesh) Diffuse(uv math3d.Vec2) color.RGBA {
	return m.Material.diffuse(uv)
}

// NormalMap samples the normal map.
func (m *Mesh) NormalMap(uv math3d.Vec2) math3d.Vec3 {
	return m.Material.normal(uv)
}

// Specular samples the specular exponent map.
func (m *Mesh) Specular(uv math3d.Vec2) float64 {
	return m.Material.specular(uv)
}

// TangentSpaceNormals reports whether NormalMap returns tangent-space
// normals.
func (m *Mesh) TangentSpaceNormals() bool {
	return m.Material.Normal != nil && m.Material.TangentSpace
}

// CalculateNormals assigns one flat normal per face.
func (m *Mesh) CalculateNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Faces))
	for i := range m.Faces {
		f := &m.Faces[i]
		m.Normals[i] = m.faceNormal(*f)
		f.N = [3]int{i, i, i}
	}
}

// CalculateSmoothNormals computes area-weighted normals per position.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	// Accumulate unnormalized face normals per position
	for i := range m.Faces {
		f := &m.Faces[i]
		v0 := m.Positions[f.V[0]]
		normal := m.Positions[f.V[1]].Sub(v0).Cross(m.Positions[f.V[2]].Sub(v0))
		for _, vi := range f.V {
			m.Normals[vi] = m.Normals[vi].Add(normal)
		}
		f.N = f.V
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

func (m *Mesh) faceNormal(f Face) math3d.Vec3 {
	v0 := m.Positions[f.V[0]]
	edge1 := m.Positions[f.V[1]].Sub(v0)
	edge2 := m.Positions[f.V[2]].Sub(v0)
	return edge1.Cross(edge2).Normalize()
}

// Transform applies a transformation matrix to all positions and the
// matching inverse transpose to all normals.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Positions {
		m.Positions[i] = mat.MulVec3(m.Positions[i])
	}
	nmat := mat.InverseTranspose()
	for i := range m.Normals {
		m.Normals[i] = nmat.MulVec3Dir(m.Normals[i]).Normalize()
	}
	m.CalculateBounds()
}

// FitUnitCube centers the mesh on the origin and scales it uniformly so
// its largest dimension spans [-1, 1].
func (m *Mesh) FitUnitCube() {
	m.CalculateBounds()
	size := m.Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	if extent == 0 {
		return
	}
	m.Transform(math3d.ScaleUniform(2 / extent).Mul(math3d.Translate(m.Center().Negate())))
}

// Clone creates a deep copy of the mesh geometry. Material maps are
// shared.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Positions: make([]math3d.Vec3, len(m.Positions)),
		UVs:       make([]math3d.Vec2, len(m.UVs)),
		Normals:   make([]math3d.Vec3, len(m.Normals)),
		Faces:     make([]Face, len(m.Faces)),
		Material:  m.Material,
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Positions, m.Positions)
	copy(clone.UVs, m.UVs)
	copy(clone.Normals, m.Normals)
	copy(clone.Faces, m.Faces)
	return clone
}
