package asset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/udhos/gwob"
)

// OBJLoader loads Wavefront OBJ models and their MTL material libraries.
// Each OBJ group becomes one mesh.
type OBJLoader struct {
	dir      string
	textures *TextureCache
}

// NewOBJLoader creates a loader that resolves model, material and texture
// paths relative to dir.
func NewOBJLoader(dir string, textures *TextureCache) *OBJLoader {
	if textures == nil {
		textures = NewTextureCache()
	}
	return &OBJLoader{dir: dir, textures: textures}
}

func (l *OBJLoader) Load(name string) (*ModelData, error) {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open model: %w", err)
	}
	defer f.Close()

	obj, err := gwob.NewObjFromReader(name, bufio.NewReader(f), &gwob.ObjParserOptions{})
	if err != nil {
		return nil, fmt.Errorf("asset: parse %s: %w", name, err)
	}

	data := &ModelData{Name: name}
	materialIndex := map[string]int{}
	if obj.Mtllib != "" {
		if err := l.loadMaterials(obj.Mtllib, data, materialIndex); err != nil {
			return nil, err
		}
	}

	groups := obj.Groups
	if len(groups) == 0 {
		groups = []*gwob.Group{{Name: name, IndexBegin: 0, IndexCount: len(obj.Indices)}}
	}
	for _, g := range groups {
		if g.IndexCount == 0 {
			continue
		}
		mesh := buildMesh(obj, g)
		mesh.Material = materialIndex[g.Usemtl]
		data.Meshes = append(data.Meshes, mesh)
	}
	if len(data.Meshes) == 0 {
		return nil, fmt.Errorf("asset: %s has no faces", name)
	}
	return data, nil
}

func (l *OBJLoader) loadMaterials(mtllib string, data *ModelData, index map[string]int) error {
	lib, err := gwob.ReadMaterialLibFromFile(filepath.Join(l.dir, mtllib), &gwob.ObjParserOptions{})
	if err != nil {
		return fmt.Errorf("asset: material library %s: %w", mtllib, err)
	}

	names := make([]string, 0, len(lib.Lib))
	for name := range lib.Lib {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		mtl := lib.Lib[name]
		material := MaterialData{Name: name}
		if mtl.MapKd != "" {
			img, err := l.textures.Load(filepath.Join(l.dir, mtl.MapKd))
			if err != nil {
				return err
			}
			material.Diffuse = img
		}
		index[name] = len(data.Materials)
		data.Materials = append(data.Materials, material)
	}
	return nil
}

// buildMesh copies the vertices a group references into a compact vertex
// list and rewrites its indices to match.
func buildMesh(obj *gwob.Obj, g *gwob.Group) MeshData {
	stride := obj.StrideSize / 4
	posOff := obj.StrideOffsetPosition / 4
	texOff := obj.StrideOffsetTexture / 4
	normOff := obj.StrideOffsetNormal / 4

	mesh := MeshData{Name: g.Name}
	remap := make(map[int]uint32)
	for _, src := range obj.Indices[g.IndexBegin : g.IndexBegin+g.IndexCount] {
		dst, ok := remap[src]
		if !ok {
			base := src * stride
			c := obj.Coord
			v := Vertex{
				Position: mgl32.Vec3{c[base+posOff], c[base+posOff+1], c[base+posOff+2]},
			}
			if obj.TextCoordFound {
				v.TexCoord = mgl32.Vec2{c[base+texOff], c[base+texOff+1]}
			}
			if obj.NormCoordFound {
				v.Normal = mgl32.Vec3{c[base+normOff], c[base+normOff+1], c[base+normOff+2]}
			}
			dst = uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, v)
			remap[src] = dst
		}
		mesh.Indices = append(mesh.Indices, dst)
	}
	return mesh
}
