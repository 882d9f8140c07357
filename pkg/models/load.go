package models

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Load reads a mesh, choosing the loader by file extension.
func Load(path string, logger *slog.Logger) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		l := NewOBJLoader()
		l.Logger = logger
		return l.Load(path)
	case ".gltf", ".glb":
		l := NewGLTFLoader()
		l.Logger = logger
		return l.Load(path)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q", ext)
	}
}
