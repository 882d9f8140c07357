package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/render"
)

func writeScene(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, Vec{1, 1, 3}, s.Eye)
	assert.Equal(t, Vec{}, s.Center)
	assert.Equal(t, Vec{0, 1, 0}, s.Up)
	assert.Equal(t, render.TechniquePhong, s.Technique())
	assert.Equal(t, DefaultOutput, s.Output)

	cam := s.Camera()
	assert.Equal(t, render.NewCamera(DefaultWidth, DefaultHeight), cam)
}

func TestLoadYAML(t *testing.T) {
	path := writeScene(t, "scene.yaml", `
mesh: obj/head.obj
width: 400
height: 300
eye: [0, 0, 4]
light: [0, 1, 1]
projection: orthographic
shader: shadow
shadowBias: 10
rotate: 45
textures:
  diffuse: tex/diffuse.tga
  tangentSpace: true
output: out.png
depthOutput: depth.tga
`)

	s, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "obj", "head.obj"), s.Mesh)
	assert.Equal(t, filepath.Join(dir, "tex", "diffuse.tga"), s.Textures.Diffuse)
	assert.True(t, s.Textures.TangentSpace)
	assert.Equal(t, 400, s.Width)
	assert.Equal(t, 300, s.Height)
	assert.Equal(t, Vec{0, 0, 4}, s.Eye)
	assert.Equal(t, math3d.V3(0, 1, 1), s.Light.V3())
	assert.Equal(t, render.TechniqueShadow, s.Technique())
	assert.Equal(t, 10.0, s.ShadowBias)
	assert.Equal(t, 45.0, s.Rotate)
	assert.Equal(t, "out.png", s.Output)
	assert.Equal(t, "depth.tga", s.DepthOutput)

	cam := s.Camera()
	assert.True(t, cam.Orthographic)
	assert.Equal(t, [4]int{50, 37, 300, 226}, [4]int{cam.X, cam.Y, cam.W, cam.H})
}

func TestLoadTOML(t *testing.T) {
	path := writeScene(t, "scene.toml", `
mesh = "/abs/cube.obj"
shader = "toon"
center = [0.5, 0, 0]

[textures]
normal = "nm.tga"
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/abs/cube.obj", s.Mesh)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "nm.tga"), s.Textures.Normal)
	assert.Equal(t, render.TechniqueToon, s.Technique())
	assert.Equal(t, Vec{0.5, 0, 0}, s.Center)
	assert.Equal(t, DefaultWidth, s.Width)
	assert.Equal(t, ProjectionPerspective, s.Projection)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, file, body string
	}{
		{"unknown extension", "scene.json", `{}`},
		{"unknown yaml key", "scene.yaml", "colour: red\n"},
		{"unknown toml key", "scene.toml", "colour = \"red\"\n"},
		{"bad yaml", "scene.yaml", "eye: [1, 2\n"},
		{"short vector", "scene.yaml", "eye: [1, 2]\n"},
		{"bad shader", "scene.yaml", "shader: raytrace\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScene(t, tt.file, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Scene)
	}{
		{"zero width", func(s *Scene) { s.Width = -1 }},
		{"margin too large", func(s *Scene) { s.Margin = 0.5 }},
		{"projection", func(s *Scene) { s.Projection = "fisheye" }},
		{"eye at center", func(s *Scene) { s.Center = s.Eye }},
		{"up parallel", func(s *Scene) { s.Up = Vec{2, 2, 6} }},
		{"zero light", func(s *Scene) { s.Light = Vec{} }},
		{"light parallel to up for shadows", func(s *Scene) {
			s.Shader = "shadow"
			s.Light = Vec{0, 3, 0}
		}},
		{"negative bias", func(s *Scene) { s.ShadowBias = -1 }},
		{"rotation", func(s *Scene) { s.Rotate = math.Inf(1) }},
		{"shader", func(s *Scene) { s.Shader = "nope" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalid)
		})
	}

	s := Default()
	s.Light = Vec{0, 3, 0}
	assert.NoError(t, s.Validate(), "a vertical light only matters for shadows")
}
