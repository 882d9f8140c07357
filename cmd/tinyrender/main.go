// tinyrender - software 3D renderer
// Renders an OBJ or glTF mesh to a TGA, PNG or BMP image with a choice of
// shaders, or shows it in the terminal with -view.
//
// Viewer controls:
//
//	W/S, Up/Down     - Orbit pitch
//	A/D, Left/Right  - Orbit yaw
//	+/-              - Zoom
//	T                - Next shader
//	X                - Toggle wireframe overlay
//	R                - Reset view
//	Esc, Ctrl+C      - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/taigrr/tinyrender/internal/config"
	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
)

var (
	configPath = flag.String("config", "", "Scene file (.yaml, .yml or .toml)")
	shaderName = flag.String("shader", "", "Shader: "+techniqueList())
	outputPath = flag.String("o", "", "Output image (.tga, .png or .bmp)")
	depthPath  = flag.String("depth", "", "Write the depth buffer to this image")
	width      = flag.Int("width", 0, "Image width")
	height     = flag.Int("height", 0, "Image height")
	eyeFlag    = flag.String("eye", "", "Camera position x,y,z")
	centerFlag = flag.String("center", "", "Point the camera looks at x,y,z")
	upFlag     = flag.String("up", "", "Camera up direction x,y,z")
	lightFlag  = flag.String("light", "", "Direction toward the light x,y,z")
	ortho      = flag.Bool("ortho", false, "Orthographic projection")
	bias       = flag.Float64("bias", 0, "Shadow bias in depth units")
	fit        = flag.Bool("fit", false, "Center the mesh and scale it into [-1,1]^3")
	progress   = flag.Bool("progress", false, "Show a progress bar")
	wire       = flag.Bool("wire", false, "Draw mesh edges, axes and the light direction over the image")
	rotate     = flag.Float64("rotate", 0, "Turn the mesh about the y axis, in degrees")
	resize     = flag.String("resize", "", "Rescale the image to WxH before saving")
	view       = flag.Bool("view", false, "Interactive terminal viewer")
	targetFPS  = flag.Int("fps", 30, "Viewer target FPS")
	verbose    = flag.Bool("v", false, "Debug logging")
)

func techniqueList() string {
	var names []string
	for _, t := range render.Techniques() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "tinyrender - software 3D renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: tinyrender [options] [model.obj|model.gltf|model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "The model may also be given by the scene file (-config).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nViewer controls:\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit\n")
		fmt.Fprintf(os.Stderr, "  +/-         - Zoom\n")
		fmt.Fprintf(os.Stderr, "  T           - Next shader\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	scene, err := loadScene()
	if err != nil {
		return err
	}
	if scene.Mesh == "" {
		flag.Usage()
		return errors.New("no model given")
	}

	mesh, err := models.Load(scene.Mesh, logger)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if err := applyTextures(mesh, scene.Textures); err != nil {
		return err
	}
	orient(mesh, scene, *fit || *view)

	if *view {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runViewer(ctx, scene, mesh, *targetFPS)
	}
	return renderImage(scene, mesh, logger)
}

// loadScene reads the scene file, if any, and applies the flags that
// were set on the command line over it.
func loadScene() (config.Scene, error) {
	scene := config.Default()
	if *configPath != "" {
		var err error
		if scene, err = config.Load(*configPath); err != nil {
			return config.Scene{}, err
		}
	}
	if flag.NArg() > 0 {
		scene.Mesh = flag.Arg(0)
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "shader":
			scene.Shader = *shaderName
		case "o":
			scene.Output = *outputPath
		case "depth":
			scene.DepthOutput = *depthPath
		case "width":
			scene.Width = *width
		case "height":
			scene.Height = *height
		case "eye":
			scene.Eye, err = parseVec(f.Name, *eyeFlag)
		case "center":
			scene.Center, err = parseVec(f.Name, *centerFlag)
		case "up":
			scene.Up, err = parseVec(f.Name, *upFlag)
		case "light":
			scene.Light, err = parseVec(f.Name, *lightFlag)
		case "ortho":
			scene.Projection = config.ProjectionPerspective
			if *ortho {
				scene.Projection = config.ProjectionOrthographic
			}
		case "bias":
			scene.ShadowBias = *bias
		}
	})
	if err != nil {
		return config.Scene{}, err
	}
	if err := scene.Validate(); err != nil {
		return config.Scene{}, err
	}
	return scene, nil
}

func parseVec(name, s string) (config.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return config.Vec{}, fmt.Errorf("-%s: want x,y,z, got %q", name, s)
	}
	var v config.Vec
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return config.Vec{}, fmt.Errorf("-%s: %w", name, err)
		}
		v[i] = f
	}
	return v, nil
}

func parseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("-resize: want WxH, got %q", s)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("-resize: %w", err)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("-resize: %w", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("-resize: size %dx%d", w, h)
	}
	return w, h, nil
}

func applyTextures(mesh *models.Mesh, t config.Textures) error {
	for _, m := range []struct {
		path string
		dst  **models.Texture
	}{
		{t.Diffuse, &mesh.Material.Diffuse},
		{t.Normal, &mesh.Material.Normal},
		{t.Specular, &mesh.Material.Specular},
	} {
		if m.path == "" {
			continue
		}
		tex, err := models.LoadTexture(m.path)
		if err != nil {
			return fmt.Errorf("load texture: %w", err)
		}
		*m.dst = tex
	}
	if t.TangentSpace {
		mesh.Material.TangentSpace = true
	}
	return nil
}

// orient fits the mesh into the unit cube when fit is set, then applies
// the scene's rotation about y.
func orient(mesh *models.Mesh, scene config.Scene, fit bool) {
	if fit {
		mesh.FitUnitCube()
	}
	if scene.Rotate != 0 {
		mesh.Transform(math3d.RotateY(scene.Rotate * math.Pi / 180))
	}
}

// drawOverlay draws the mesh edges, the world axes and a cross one unit
// from the scene center toward the light.
func drawOverlay(cam render.Camera, fb *render.Framebuffer, mesh *models.Mesh, light math3d.Vec3) {
	wf := render.NewWireframe(cam, fb)
	wf.DrawMesh(mesh, render.RGB(0, 255, 128))
	wf.DrawAxes(0.5)
	wf.DrawPoint(cam.Center.Add(light.Normalize()), 0.2, render.ColorOrange)
}

func renderImage(scene config.Scene, mesh *models.Mesh, logger *slog.Logger) error {
	start := time.Now()
	technique := scene.Technique()
	cam := scene.Camera()
	light := scene.Light.V3()

	img := render.NewFramebuffer(scene.Width, scene.Height)
	zbuf := render.NewDepthBuffer(scene.Width, scene.Height)
	p := &render.Pipeline{Logger: logger}

	passes := 1
	if technique == render.TechniqueShadow {
		passes = 2
	}
	if *progress {
		bar := progressbar.NewOptions64(int64(passes*mesh.FaceCount()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("rendering "+technique.String()),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		p.Progress = func(done, total int) { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	// The shadow technique saves the light pass instead of its own depth.
	saveDepth := zbuf.Write
	if technique == render.TechniqueShadow {
		sr := &render.ShadowRenderer{Camera: cam, Light: light, Pipeline: p, Bias: scene.ShadowBias}
		if _, err := sr.Render(mesh, img, zbuf); err != nil {
			return err
		}
		saveDepth = sr.DepthImage.Save
	} else {
		if _, err := p.Render(mesh, technique, render.CameraUniforms(cam, light), img, zbuf); err != nil {
			return err
		}
	}

	if *wire {
		drawOverlay(cam, img, mesh, light)
	}

	out := img
	if *resize != "" {
		w, h, err := parseSize(*resize)
		if err != nil {
			return err
		}
		out = img.Scale(w, h)
	}
	if err := out.Save(scene.Output); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	if scene.DepthOutput != "" {
		if err := saveDepth(scene.DepthOutput); err != nil {
			return fmt.Errorf("save depth: %w", err)
		}
	}

	logger.Info("rendered",
		"output", scene.Output,
		"shader", technique,
		"faces", mesh.FaceCount(),
		"written", p.Stats.Written,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
