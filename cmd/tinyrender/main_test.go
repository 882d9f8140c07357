package main

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/tinyrender/internal/config"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
	"github.com/taigrr/tinyrender/pkg/tga"
)

const cubeOBJ = `
v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
f 1 2 3
f 1 3 4
f 6 5 8
f 6 8 7
f 2 6 7
f 2 7 3
f 5 1 4
f 5 4 8
f 4 3 7
f 4 7 8
f 5 6 2
f 5 2 1
`

func cube(t *testing.T) *models.Mesh {
	t.Helper()
	mesh, err := models.ParseOBJ(strings.NewReader(cubeOBJ), "cube")
	require.NoError(t, err)
	return mesh
}

func TestParseVec(t *testing.T) {
	v, err := parseVec("eye", "1, -2.5,3")
	require.NoError(t, err)
	assert.Equal(t, config.Vec{1, -2.5, 3}, v)

	for _, bad := range []string{"", "1,2", "1,2,3,4", "1,x,3"} {
		_, err := parseVec("eye", bad)
		assert.ErrorContains(t, err, "-eye", "input %q", bad)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("320x200")
	require.NoError(t, err)
	assert.Equal(t, [2]int{320, 200}, [2]int{w, h})

	w, h, err = parseSize("64X48")
	require.NoError(t, err)
	assert.Equal(t, [2]int{64, 48}, [2]int{w, h})

	for _, bad := range []string{"320", "ax2", "2xb", "0x10"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestApplyTextures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diffuse.tga")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, tga.Encode(f, img, nil))
	require.NoError(t, f.Close())

	mesh := cube(t)
	require.NoError(t, applyTextures(mesh, config.Textures{Diffuse: path, TangentSpace: true}))
	require.NotNil(t, mesh.Material.Diffuse)
	assert.Nil(t, mesh.Material.Normal)
	assert.True(t, mesh.Material.TangentSpace)

	err = applyTextures(mesh, config.Textures{Normal: filepath.Join(dir, "missing.tga")})
	assert.ErrorContains(t, err, "load texture")
}

func TestRenderImage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tech := range []string{"phong", "shadow", "depth"} {
		t.Run(tech, func(t *testing.T) {
			dir := t.TempDir()
			scene := config.Default()
			scene.Width, scene.Height = 64, 48
			scene.Shader = tech
			scene.Output = filepath.Join(dir, "out.png")
			scene.DepthOutput = filepath.Join(dir, "depth.tga")
			require.NoError(t, scene.Validate())

			require.NoError(t, renderImage(scene, cube(t), logger))

			for _, p := range []string{scene.Output, scene.DepthOutput} {
				f, err := os.Open(p)
				require.NoError(t, err)
				img, _, err := image.Decode(f)
				f.Close()
				require.NoError(t, err)
				assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
			}
		})
	}
}

func TestViewerKeys(t *testing.T) {
	v := newViewer(config.Default(), cube(t), 30)

	assert.True(t, v.handleKey(uv.KeyPressEvent{Code: 'd', Text: "d"}))
	assert.Positive(t, v.yaw.Velocity)
	assert.True(t, v.handleKey(uv.KeyPressEvent{Code: uv.KeyUp}))
	assert.Positive(t, v.pitch.Velocity)

	v.handleKey(uv.KeyPressEvent{Code: '+', Text: "+"})
	assert.Less(t, v.zoom, 1.0)

	before := v.technique
	v.handleKey(uv.KeyPressEvent{Code: 't', Text: "t"})
	assert.NotEqual(t, before, v.technique)

	v.handleKey(uv.KeyPressEvent{Code: 'x', Text: "x"})
	assert.True(t, v.wire)

	for range 10 {
		v.yaw.Update()
	}
	assert.NotZero(t, v.yaw.Position)

	v.handleKey(uv.KeyPressEvent{Code: 'r', Text: "r"})
	assert.Zero(t, v.yaw.Position)
	assert.Equal(t, 1.0, v.zoom)

	assert.False(t, v.handleKey(uv.KeyPressEvent{Code: uv.KeyEscape}))
}

func TestViewerFrame(t *testing.T) {
	bg := color.RGBA{30, 30, 40, 255}
	for _, tech := range render.Techniques() {
		t.Run(tech.String(), func(t *testing.T) {
			v := newViewer(config.Default(), cube(t), 30)
			v.technique = tech
			v.wire = true

			fb, err := v.frame(40, 40)
			require.NoError(t, err)
			assert.Equal(t, bg, fb.Get(0, 0))
			assert.NotEqual(t, bg, fb.Get(20, 20))
		})
	}
}

func TestDrawStatus(t *testing.T) {
	scr := uv.NewScreenBuffer(4, 1)
	drawStatus(scr, 0, "hello")
	assert.Equal(t, "h", scr.CellAt(0, 0).Content)
	assert.Equal(t, "l", scr.CellAt(3, 0).Content)
}

func TestOrient(t *testing.T) {
	mesh := cube(t)
	scene := config.Default()
	scene.Rotate = 90
	orient(mesh, scene, true)

	// Fitted to [-1, 1], then a quarter turn takes +z to +x.
	p := mesh.Positions[0]
	assert.InDelta(t, 1.0, p.X, 1e-9)
	assert.InDelta(t, -1.0, p.Y, 1e-9)
	assert.InDelta(t, 1.0, p.Z, 1e-9)

	unchanged := cube(t)
	orient(unchanged, config.Default(), false)
	assert.Equal(t, cube(t).Positions, unchanged.Positions)
}

func TestDrawOverlay(t *testing.T) {
	scene := config.Default()
	scene.Width, scene.Height = 96, 96
	fb := render.NewFramebuffer(96, 96)
	drawOverlay(scene.Camera(), fb, cube(t), scene.Light.V3())

	count := map[color.RGBA]int{}
	for _, p := range fb.Pixels {
		count[p]++
	}
	for _, c := range []color.RGBA{render.RGB(0, 255, 128), render.ColorRed, render.ColorBlue, render.ColorOrange} {
		assert.Positive(t, count[c], "color %v", c)
	}
}
