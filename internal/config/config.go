// Package config loads tinyrender scene files. A scene names the mesh to
// draw and everything needed to build the camera, the light and the
// output paths. Scenes are YAML or TOML, chosen by extension.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/tinyrender/pkg/math3d"
	"github.com/taigrr/tinyrender/pkg/render"
)

// ErrInvalid is wrapped by every validation and format error.
var ErrInvalid = errors.New("invalid scene")

const (
	ProjectionPerspective  = "perspective"
	ProjectionOrthographic = "orthographic"

	DefaultWidth      = 800
	DefaultHeight     = 800
	DefaultMargin     = 0.125
	DefaultShader     = "phong"
	DefaultOutput     = "output.tga"
	DefaultShadowBias = 43.34
)

// Vec is a 3-component vector written as a list, e.g. [1, 1, 3].
type Vec [3]float64

// V3 converts v to a math3d vector.
func (v Vec) V3() math3d.Vec3 { return math3d.V3(v[0], v[1], v[2]) }

// IsZero reports whether every component is zero.
func (v Vec) IsZero() bool { return v == Vec{} }

// Scene describes one render.
type Scene struct {
	Mesh string `yaml:"mesh" toml:"mesh"`

	Width  int `yaml:"width,omitempty" toml:"width,omitempty"`
	Height int `yaml:"height,omitempty" toml:"height,omitempty"`
	// Margin is the fraction of the image left empty on every side of
	// the viewport.
	Margin float64 `yaml:"margin,omitempty" toml:"margin,omitempty"`

	Eye        Vec    `yaml:"eye,omitempty" toml:"eye,omitempty"`
	Center     Vec    `yaml:"center,omitempty" toml:"center,omitempty"`
	Up         Vec    `yaml:"up,omitempty" toml:"up,omitempty"`
	Light      Vec    `yaml:"light,omitempty" toml:"light,omitempty"`
	Projection string `yaml:"projection,omitempty" toml:"projection,omitempty"`

	Shader     string  `yaml:"shader,omitempty" toml:"shader,omitempty"`
	ShadowBias float64 `yaml:"shadowBias,omitempty" toml:"shadowBias,omitempty"`

	// Rotate turns the mesh about the y axis, in degrees.
	Rotate float64 `yaml:"rotate,omitempty" toml:"rotate,omitempty"`

	Textures Textures `yaml:"textures,omitempty" toml:"textures,omitempty"`

	Output      string `yaml:"output,omitempty" toml:"output,omitempty"`
	DepthOutput string `yaml:"depthOutput,omitempty" toml:"depthOutput,omitempty"`
}

// Textures override the maps discovered next to the mesh.
type Textures struct {
	Diffuse      string `yaml:"diffuse,omitempty" toml:"diffuse,omitempty"`
	Normal       string `yaml:"normal,omitempty" toml:"normal,omitempty"`
	Specular     string `yaml:"specular,omitempty" toml:"specular,omitempty"`
	TangentSpace bool   `yaml:"tangentSpace,omitempty" toml:"tangentSpace,omitempty"`
}

// Default returns the scene used when no file is given: the camera at
// (1, 1, 3) looking at the origin, lit from (1, 1, 1).
func Default() Scene {
	var s Scene
	s.normalize()
	return s
}

func (s *Scene) normalize() {
	if s.Width == 0 {
		s.Width = DefaultWidth
	}
	if s.Height == 0 {
		s.Height = DefaultHeight
	}
	if s.Margin == 0 {
		s.Margin = DefaultMargin
	}
	if s.Eye.IsZero() {
		s.Eye = Vec{1, 1, 3}
	}
	if s.Up.IsZero() {
		s.Up = Vec{0, 1, 0}
	}
	if s.Light.IsZero() {
		s.Light = Vec{1, 1, 1}
	}
	if s.Projection == "" {
		s.Projection = ProjectionPerspective
	}
	if s.Shader == "" {
		s.Shader = DefaultShader
	}
	if s.ShadowBias == 0 {
		s.ShadowBias = DefaultShadowBias
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
}

// Load reads a scene from a .yaml, .yml or .toml file. Relative mesh and
// texture paths are resolved against the file's directory. Unknown keys
// are an error.
func Load(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("read scene: %w", err)
	}

	var s Scene
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return Scene{}, fmt.Errorf("%w: parse %s: %v", ErrInvalid, filepath.Base(path), err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return Scene{}, fmt.Errorf("%w: parse %s: %v", ErrInvalid, filepath.Base(path), err)
		}
	default:
		return Scene{}, fmt.Errorf("%w: unsupported scene format %q", ErrInvalid, ext)
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&s.Mesh, &s.Textures.Diffuse, &s.Textures.Normal, &s.Textures.Specular} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}

	s.normalize()
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// Validate reports the first problem that would make the scene
// unrenderable. A missing mesh is allowed; the command line may supply it.
func (s Scene) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalid, s.Width, s.Height)
	case s.Margin < 0 || s.Margin >= 0.5:
		return fmt.Errorf("%w: margin %v outside [0, 0.5)", ErrInvalid, s.Margin)
	case s.Projection != ProjectionPerspective && s.Projection != ProjectionOrthographic:
		return fmt.Errorf("%w: projection %q", ErrInvalid, s.Projection)
	case s.Eye == s.Center:
		return fmt.Errorf("%w: eye and center coincide", ErrInvalid)
	case s.Light.IsZero():
		return fmt.Errorf("%w: zero light direction", ErrInvalid)
	}

	view := s.Eye.V3().Sub(s.Center.V3())
	if s.Up.V3().Cross(view).Len() < 1e-9*view.Len() {
		return fmt.Errorf("%w: up %v is parallel to the view direction", ErrInvalid, s.Up)
	}
	if s.Shader == render.TechniqueShadow.String() &&
		s.Light.V3().Cross(s.Up.V3()).Len() < 1e-9*s.Light.V3().Len() {
		return fmt.Errorf("%w: light %v is parallel to up", ErrInvalid, s.Light)
	}
	if _, err := render.ParseTechnique(s.Shader); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if math.IsNaN(s.ShadowBias) || s.ShadowBias < 0 {
		return fmt.Errorf("%w: shadow bias %v", ErrInvalid, s.ShadowBias)
	}
	if math.IsNaN(s.Rotate) || math.IsInf(s.Rotate, 0) {
		return fmt.Errorf("%w: rotation %v", ErrInvalid, s.Rotate)
	}
	return nil
}

// Technique returns the parsed shader name.
func (s Scene) Technique() render.Technique {
	t, err := render.ParseTechnique(s.Shader)
	if err != nil {
		return render.TechniquePhong
	}
	return t
}

// Camera builds the render camera for the scene.
func (s Scene) Camera() render.Camera {
	mx := int(float64(s.Width) * s.Margin)
	my := int(float64(s.Height) * s.Margin)
	return render.Camera{
		Eye:          s.Eye.V3(),
		Center:       s.Center.V3(),
		Up:           s.Up.V3(),
		Orthographic: s.Projection == ProjectionOrthographic,
		X:            mx,
		Y:            my,
		W:            s.Width - 2*mx,
		H:            s.Height - 2*my,
	}
}
