package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/tinyrender/internal/config"
	"github.com/taigrr/tinyrender/pkg/models"
	"github.com/taigrr/tinyrender/pkg/render"
)

// OrbitAxis tracks one orbit angle and its angular velocity. The
// velocity decays toward zero through a critically damped spring.
type OrbitAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewOrbitAxis creates an axis whose spring is stepped once per frame.
func NewOrbitAxis(fps int) OrbitAxis {
	return OrbitAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *OrbitAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// viewer holds the interactive state of -view.
type viewer struct {
	scene config.Scene
	mesh  *models.Mesh
	fps   int

	yaw, pitch OrbitAxis
	zoom       float64
	technique  render.Technique
	wire       bool

	pipeline render.Pipeline
}

func newViewer(scene config.Scene, mesh *models.Mesh, fps int) *viewer {
	v := &viewer{scene: scene, mesh: mesh, fps: fps, technique: scene.Technique()}
	v.reset()
	return v
}

func (v *viewer) reset() {
	v.yaw = NewOrbitAxis(v.fps)
	v.pitch = NewOrbitAxis(v.fps)
	v.zoom = 1
}

// camera returns the scene camera for a width x height image, orbited
// and zoomed by the viewer state.
func (v *viewer) camera(width, height int) render.Camera {
	s := v.scene
	s.Width, s.Height = width, height
	return s.Camera().Orbit(v.yaw.Position, v.pitch.Position).Zoom(v.zoom)
}

// frame renders one image of the given size.
func (v *viewer) frame(width, height int) (*render.Framebuffer, error) {
	fb := render.NewFramebuffer(width, height)
	fb.Clear(render.RGB(30, 30, 40))
	zbuf := render.NewDepthBuffer(width, height)

	cam := v.camera(width, height)
	light := v.scene.Light.V3()
	var err error
	if v.technique == render.TechniqueShadow {
		sr := &render.ShadowRenderer{Camera: cam, Light: light, Pipeline: &v.pipeline, Bias: v.scene.ShadowBias}
		_, err = sr.Render(v.mesh, fb, zbuf)
	} else {
		_, err = v.pipeline.Render(v.mesh, v.technique, render.CameraUniforms(cam, light), fb, zbuf)
	}
	if err != nil {
		return nil, err
	}
	if v.wire {
		drawOverlay(cam, fb, v.mesh, light)
	}
	return fb, nil
}

// handleKey applies one key press. It reports false when the viewer
// should quit.
func (v *viewer) handleKey(ev uv.KeyPressEvent) bool {
	const impulse = 0.03
	switch {
	case ev.MatchString("escape", "ctrl+c"):
		return false
	case ev.MatchString("w", "up"):
		v.pitch.Velocity += impulse
	case ev.MatchString("s", "down"):
		v.pitch.Velocity -= impulse
	case ev.MatchString("a", "left"):
		v.yaw.Velocity -= impulse
	case ev.MatchString("d", "right"):
		v.yaw.Velocity += impulse
	// "+" cannot go through MatchString, which splits on it.
	case ev.Text == "+" || ev.Text == "=":
		v.zoom = max(0.2, v.zoom*0.9)
	case ev.Text == "-" || ev.Text == "_":
		v.zoom = min(5, v.zoom/0.9)
	case ev.MatchString("t"):
		all := render.Techniques()
		v.technique = all[(int(v.technique)+1)%len(all)]
	case ev.MatchString("x"):
		v.wire = !v.wire
	case ev.MatchString("r"):
		v.reset()
	}
	return true
}

func (v *viewer) status() string {
	return fmt.Sprintf(" %s | %d faces | shader %s | T shader  X wire  R reset  Esc quit ",
		v.mesh.Name, v.mesh.FaceCount(), v.technique)
}

// drawStatus writes s on row y of scr, one cell per rune.
func drawStatus(scr uv.Screen, y int, s string) {
	style := uv.Style{Fg: render.ColorWhite, Bg: render.ColorBlack}
	x := 0
	for _, r := range s {
		if x >= scr.Bounds().Dx() {
			break
		}
		scr.SetCell(x, y, &uv.Cell{Content: string(r), Width: 1, Style: style})
		x++
	}
}

func runViewer(ctx context.Context, scene config.Scene, mesh *models.Mesh, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	_ = term.Resize(width, height)

	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Display()
		_ = term.Shutdown(context.Background())
	}()

	v := newViewer(scene, mesh, fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				_ = term.Resize(width, height)
			case uv.KeyPressEvent:
				if !v.handleKey(ev) {
					return nil
				}
			}

		case <-ticker.C:
			v.yaw.Update()
			v.pitch.Update()

			// Two pixel rows per terminal row, one row kept for status.
			rows := max(height-1, 1)
			fb, err := v.frame(width, rows*2)
			if err != nil {
				return err
			}
			status := v.status()
			term.Draw(uv.DrawableFunc(func(scr uv.Screen, area uv.Rectangle) {
				fb.Draw(scr, uv.Rect(area.Min.X, area.Min.Y, area.Dx(), rows))
				drawStatus(scr, area.Min.Y+rows, status)
			}))
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
