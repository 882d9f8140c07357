package models

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/tinyrender/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
	LoadTextures     bool
	Logger           *slog.Logger
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
		LoadTextures:     true,
		Logger:           slog.Default(),
	}
}

// LoadGLTF loads a .gltf or binary .glb file.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh. Every triangle
// primitive of every mesh is merged into one Mesh; the material of the
// first primitive that has one becomes the mesh material.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	material := -1
	hasNormals := false

	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if _, ok := prim.Attributes[gltf.NORMAL]; ok {
				hasNormals = true
			}
		}
		mat, err := l.processMesh(doc, m, mesh)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		if material < 0 {
			material = mat
		}
	}

	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	mesh.CalculateBounds()

	if material >= 0 {
		mesh.Material = l.loadMaterial(doc, path, material)
	}

	l.logger().Debug("loaded mesh", "path", path,
		"v", len(mesh.Positions), "f", len(mesh.Faces), "vt", len(mesh.UVs), "vn", len(mesh.Normals))
	return mesh, nil
}

func (l *GLTFLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// processMesh extracts geometry from a GLTF mesh and returns the first
// material index it references, or -1.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) (int, error) {
	material := -1
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readPositions(doc, posIdx)
		if err != nil {
			return -1, fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readNormals(doc, normIdx)
			if err != nil {
				return -1, fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readUVs(doc, uvIdx)
			if err != nil {
				return -1, fmt.Errorf("read uvs: %w", err)
			}
		}

		if material < 0 && prim.Material != nil {
			material = *prim.Material
		}

		// glTF attributes share one index per vertex, so V, T and N
		// all use the same base offset.
		base := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, positions...)
		for i := range positions {
			if i < len(normals) {
				mesh.Normals = append(mesh.Normals, normals[i].Normalize())
			} else {
				mesh.Normals = append(mesh.Normals, math3d.V3(0, 0, 1))
			}
			if i < len(uvs) {
				// glTF puts V=0 at the top of the image
				mesh.UVs = append(mesh.UVs, math3d.V2(uvs[i].X, 1.0-uvs[i].Y))
			} else {
				mesh.UVs = append(mesh.UVs, math3d.Vec2{})
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices, len(positions))
			if err != nil {
				return -1, fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			v := [3]int{base + indices[i], base + indices[i+1], base + indices[i+2]}
			mesh.Faces = append(mesh.Faces, Face{V: v, T: v, N: v})
		}
	}

	return material, nil
}

// loadMaterial converts a glTF material. Texture failures are logged
// and leave the neutral fallback in place.
func (l *GLTFLoader) loadMaterial(doc *gltf.Document, path string, idx int) Material {
	mat := DefaultMaterial()
	if idx >= len(doc.Materials) {
		return mat
	}
	src := doc.Materials[idx]
	mat.Name = src.Name

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.BaseColor = *pbr.BaseColorFactor
		}
		if l.LoadTextures && pbr.BaseColorTexture != nil {
			mat.Diffuse = l.loadTexture(doc, path, pbr.BaseColorTexture.Index)
		}
	}
	if l.LoadTextures && src.NormalTexture != nil && src.NormalTexture.Index != nil {
		mat.Normal = l.loadTexture(doc, path, *src.NormalTexture.Index)
		mat.TangentSpace = mat.Normal != nil
	}
	return mat
}

func (l *GLTFLoader) loadTexture(doc *gltf.Document, path string, texIdx int) *Texture {
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return nil
	}
	imgIdx := *doc.Textures[texIdx].Source
	data, err := readImageData(doc, path, imgIdx)
	if err != nil {
		l.logger().Warn("texture failed to load", "image", imgIdx, "err", err)
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		l.logger().Warn("texture failed to decode", "image", imgIdx, "err", err)
		return nil
	}
	tex := TextureFromImage(img)
	tex.Wrap = WrapRepeat
	tex.FilterMode = FilterBilinear
	return tex
}

// readImageData returns the encoded bytes of an image, either embedded
// in a buffer view or stored in a file next to the document.
func readImageData(doc *gltf.Document, path string, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.Images) {
		return nil, fmt.Errorf("image %d out of range", idx)
	}
	img := doc.Images[idx]
	if img.BufferView != nil {
		if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
			return nil, fmt.Errorf("image %d: buffer view %d out of range", idx, *img.BufferView)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	}
	if img.URI == "" {
		return nil, fmt.Errorf("image %d has no source", idx)
	}
	return os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
}

// accessor returns the accessor at idx, or an error for a dangling index.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func readPositions(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	return toVec3(data), nil
}

func readNormals(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadNormal(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	return toVec3(data), nil
}

// readUVs accepts float and normalized ubyte/ushort coordinates.
func readUVs(doc *gltf.Document, idx int) ([]math3d.Vec2, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadTextureCoord(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	uvs := make([]math3d.Vec2, len(data))
	for i, e := range data {
		uvs[i] = math3d.V2(float64(e[0]), float64(e[1]))
	}
	return uvs, nil
}

// readIndices reads a triangle index list and checks every index
// against the primitive's vertex count.
func readIndices(doc *gltf.Document, idx, vertexCount int) ([]int, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadIndices(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(data))
	for i, v := range data {
		if int(v) >= vertexCount {
			return nil, fmt.Errorf("index %d at %d out of range (%d vertices)", v, i, vertexCount)
		}
		indices[i] = int(v)
	}
	return indices, nil
}

func toVec3(data [][3]float32) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(data))
	for i, e := range data {
		out[i] = math3d.V3(float64(e[0]), float64(e[1]), float64(e[2]))
	}
	return out
}
