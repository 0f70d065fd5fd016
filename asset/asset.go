// Package asset loads models and textures from the asset directory into
// CPU-side data the renderer uploads.
package asset

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrNoLoader is returned when no loader handles a file's extension.
var ErrNoLoader = errors.New("asset: no loader for extension")

// Vertex is one mesh vertex as the shader consumes it.
type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
}

// MeshData is one drawable group of a model. Material indexes the model's
// Materials; out-of-range values are treated as 0.
type MeshData struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Material int
}

// MaterialData is a named diffuse texture.
type MaterialData struct {
	Name    string
	Diffuse *image.RGBA
}

// ModelData is a loaded model. A ModelLoader may leave Materials empty when
// the source names none; Registry.Load then adds a plain white one.
type ModelData struct {
	Name      string
	Meshes    []MeshData
	Materials []MaterialData
}

// MaterialIndex returns the material a mesh draws with.
func (m *ModelData) MaterialIndex(mesh int) int {
	idx := m.Meshes[mesh].Material
	if idx < 0 || idx >= len(m.Materials) {
		return 0
	}
	return idx
}

// ModelLoader loads the model stored under name, relative to the loader's
// root directory.
type ModelLoader interface {
	Load(name string) (*ModelData, error)
}

// Registry dispatches loads to the loader registered for the file extension.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]ModelLoader
	logger  *zap.Logger
}

// NewRegistry creates a registry with the OBJ loader rooted at dir.
func NewRegistry(dir string, textures *TextureCache, logger *zap.Logger) *Registry {
	r := &Registry{
		loaders: make(map[string]ModelLoader),
		logger:  logger.Named("asset"),
	}
	r.Register(".obj", NewOBJLoader(dir, textures))
	return r
}

// Register installs loader for ext (with or without the leading dot),
// replacing any previous one.
func (r *Registry) Register(ext string, loader ModelLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[normalizeExt(ext)] = loader
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load implements ModelLoader.
func (r *Registry) Load(name string) (*ModelData, error) {
	ext := normalizeExt(filepath.Ext(name))
	r.mu.RLock()
	loader, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (%s)", ErrNoLoader, ext, name)
	}

	data, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	ensureMaterial(data)

	r.logger.Debug("model loaded",
		zap.String("model", name),
		zap.Int("meshes", len(data.Meshes)),
		zap.Int("materials", len(data.Materials)))
	return data, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ensureMaterial gives material-less models a single white material.
func ensureMaterial(data *ModelData) {
	if len(data.Materials) == 0 {
		data.Materials = []MaterialData{{Name: "default", Diffuse: White()}}
	}
	for i := range data.Materials {
		if data.Materials[i].Diffuse == nil {
			data.Materials[i].Diffuse = White()
		}
	}
}
