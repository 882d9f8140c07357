package render

import (
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// testMesh is an in-memory mesh with one normal per face and a single
// diffuse color.
type testMesh struct {
	verts   []math3d.Vec3
	faces   [][3]int
	normals []math3d.Vec3
	color   Color
	// nmap is the normal-map sample; zero means +z.
	nmap math3d.Vec3
}

func newTestMesh() *testMesh {
	return &testMesh{color: ColorWhite}
}

func (m *testMesh) VertexCount() int { return len(m.verts) }
func (m *testMesh) FaceCount() int   { return len(m.faces) }

func (m *testMesh) Position(face, corner int) math3d.Vec3 {
	return m.verts[m.faces[face][corner]]
}

func (m *testMesh) Normal(face, corner int) math3d.Vec3 { return m.normals[face] }
func (m *testMesh) UV(face, corner int) math3d.Vec2     { return math3d.Vec2{} }
func (m *testMesh) Diffuse(uv math3d.Vec2) Color        { return m.color }
func (m *testMesh) NormalMap(uv math3d.Vec2) math3d.Vec3 {
	if m.nmap == (math3d.Vec3{}) {
		return math3d.V3(0, 0, 1)
	}
	return m.nmap
}
func (m *testMesh) Specular(uv math3d.Vec2) float64 { return 1 }

// addQuad appends the quad abcd, counter-clockwise seen from outside, as
// two triangles.
func (m *testMesh) addQuad(a, b, c, d, n math3d.Vec3) {
	base := len(m.verts)
	m.verts = append(m.verts, a, b, c, d)
	m.faces = append(m.faces, [3]int{base, base + 1, base + 2}, [3]int{base, base + 2, base + 3})
	m.normals = append(m.normals, n, n)
}

// addSquareZ appends an axis-aligned square facing +z at depth z.
func (m *testMesh) addSquareZ(z, half float64) {
	m.addQuad(
		math3d.V3(-half, -half, z),
		math3d.V3(half, -half, z),
		math3d.V3(half, half, z),
		math3d.V3(-half, half, z),
		math3d.V3(0, 0, 1),
	)
}

// cubeMesh returns an axis-aligned cube of edge 2*h centered at the
// origin. Faces 0 and 1 make up the +z side.
func cubeMesh(h float64) *testMesh {
	m := newTestMesh()
	v := math3d.V3
	m.addQuad(v(-h, -h, h), v(h, -h, h), v(h, h, h), v(-h, h, h), v(0, 0, 1))
	m.addQuad(v(h, -h, -h), v(-h, -h, -h), v(-h, h, -h), v(h, h, -h), v(0, 0, -1))
	m.addQuad(v(h, -h, h), v(h, -h, -h), v(h, h, -h), v(h, h, h), v(1, 0, 0))
	m.addQuad(v(-h, -h, -h), v(-h, -h, h), v(-h, h, h), v(-h, h, -h), v(-1, 0, 0))
	m.addQuad(v(-h, h, h), v(h, h, h), v(h, h, -h), v(-h, h, -h), v(0, 1, 0))
	m.addQuad(v(-h, -h, -h), v(h, -h, -h), v(h, -h, h), v(-h, -h, h), v(0, -1, 0))
	return m
}

// solidShader writes one color through a fixed transform.
type solidShader struct {
	m     math3d.Mat4
	color Color
}

func (s *solidShader) Vertex(mesh Mesh, face, corner int) math3d.Vec4 {
	return s.m.MulVec4(math3d.V4FromV3(mesh.Position(face, corner), 1))
}

func (s *solidShader) Fragment(bar math3d.Vec3) (Color, bool) {
	return s.color, false
}

// frontCamera looks down -z from (0, 0, 3).
func frontCamera(w, h int, ortho bool) Camera {
	cam := NewCamera(w, h)
	cam.Eye = math3d.V3(0, 0, 3)
	cam.Orthographic = ortho
	return cam
}

// written counts the depth cells that received a fragment.
func written(d *DepthBuffer) int {
	n := 0
	for _, v := range d.Data {
		if v > -1 {
			n++
		}
	}
	return n
}
