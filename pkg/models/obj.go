package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// ErrNotTriangulated is returned for OBJ faces with other than three corners.
var ErrNotTriangulated = errors.New("obj: face is not a triangle")

// Material map suffixes looked up next to an OBJ file.
const (
	DiffuseSuffix       = "_diffuse.tga"
	NormalSuffix        = "_nm.tga"
	TangentNormalSuffix = "_nm_tangent.tga"
	SpecularSuffix      = "_spec.tga"
)

// OBJLoader loads Wavefront OBJ files into Mesh format.
type OBJLoader struct {
	// LoadMaps looks for material maps named after the mesh file.
	LoadMaps bool
	Logger   *slog.Logger
}

// NewOBJLoader creates a new OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{
		LoadMaps: true,
		Logger:   slog.Default(),
	}
}

// LoadOBJ loads an OBJ file and its material maps.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().Load(path)
}

// Load loads an OBJ file and returns a Mesh.
func (l *OBJLoader) Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	l.logger().Debug("loaded mesh", "path", path,
		"v", len(mesh.Positions), "f", len(mesh.Faces), "vt", len(mesh.UVs), "vn", len(mesh.Normals))

	if l.LoadMaps {
		l.loadMaps(path, &mesh.Material)
	}
	return mesh, nil
}

func (l *OBJLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// loadMaps fills in whichever maps exist beside path. Missing maps keep
// their neutral fallback.
func (l *OBJLoader) loadMaps(path string, mat *Material) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	load := func(suffix string) *Texture {
		texPath := base + suffix
		tex, err := LoadTexture(texPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			l.logger().Debug("texture not found", "path", texPath)
			return nil
		case err != nil:
			l.logger().Warn("texture failed to load", "path", texPath, "err", err)
			return nil
		}
		l.logger().Debug("texture loaded", "path", texPath, "width", tex.Width, "height", tex.Height)
		return tex
	}

	mat.Diffuse = load(DiffuseSuffix)
	if mat.Normal = load(NormalSuffix); mat.Normal == nil {
		mat.Normal = load(TangentNormalSuffix)
		mat.TangentSpace = mat.Normal != nil
	}
	mat.Specular = load(SpecularSuffix)
}

// ParseOBJ reads OBJ geometry: v, vt and vn records and triangular f
// records in any of the v, v/t, v//n or v/t/n forms. Normals are
// normalized on load; a mesh without vn records gets smooth normals.
// Other records are ignored.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	scanner := bufio.NewScanner(r)
	withNormals, withoutNormals := false, false

	for lineNo := 1; scanner.Scan(); lineNo++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			mesh.Positions = append(mesh.Positions, math3d.V3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			mesh.UVs = append(mesh.UVs, math3d.V2(v[0], v[1]))
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			mesh.Normals = append(mesh.Normals, math3d.V3(v[0], v[1], v[2]).Normalize())
		case "f":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: %w (%d corners)", lineNo, ErrNotTriangulated, len(fields)-1)
			}
			var face Face
			for c, corner := range fields[1:] {
				v, t, n, err := parseCorner(corner, len(mesh.Positions), len(mesh.UVs), len(mesh.Normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				face.V[c], face.T[c], face.N[c] = v, t, n
				if n < 0 {
					withoutNormals = true
				} else {
					withNormals = true
				}
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}
	if withNormals && withoutNormals {
		return nil, fmt.Errorf("faces mix corners with and without normals")
	}

	for i := range mesh.Faces {
		for c := range 3 {
			if mesh.Faces[i].T[c] < 0 {
				mesh.Faces[i].T[c] = 0
			}
		}
	}
	if !withNormals {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", fields[i], err)
		}
		out[i] = f
	}
	return out, nil
}

// parseCorner resolves one "v/t/n" face corner to zero-based indices.
// Absent components are -1.
func parseCorner(s string, nv, nt, nn int) (v, t, n int, err error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("bad face corner %q", s)
	}
	v, t, n = -1, -1, -1
	counts := [3]int{nv, nt, nn}
	idx := [3]*int{&v, &t, &n}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return 0, 0, 0, fmt.Errorf("bad face corner %q", s)
			}
			continue
		}
		k, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("bad face corner %q: %w", s, err)
		}
		// Negative indices count back from the most recent record.
		if k < 0 {
			k = counts[i] + k
		} else {
			k--
		}
		if k < 0 || k >= counts[i] {
			return 0, 0, 0, fmt.Errorf("face corner %q: index out of range", s)
		}
		*idx[i] = k
	}
	return v, t, n, nil
}
