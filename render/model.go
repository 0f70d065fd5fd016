package render

import (
	"fmt"

	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/gpu"
)

// Mesh is one uploaded draw call.
type Mesh struct {
	Name         string
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	IndexCount   uint32
	Material     int
}

// Material is an uploaded diffuse texture and the bind group that samples it.
type Material struct {
	Name      string
	Texture   gpu.Texture
	BindGroup gpu.BindGroup
}

// Model is the component of a drawable entity. Meshes and Materials are
// shared with the Models cache, which owns their GPU handles.
type Model struct {
	Name      string
	Meshes    []*Mesh
	Materials []*Material
}

// MaterialFor returns the material mesh draws with, falling back to the
// first material.
func (m *Model) MaterialFor(mesh *Mesh) *Material {
	if mesh.Material < 0 || mesh.Material >= len(m.Materials) {
		return m.Materials[0]
	}
	return m.Materials[mesh.Material]
}

// Release frees every GPU handle of the model.
func (m *Model) Release() {
	for _, mat := range m.Materials {
		gpu.Release(mat.BindGroup)
	}
	for _, mesh := range m.Meshes {
		gpu.Release(mesh.VertexBuffer, mesh.IndexBuffer)
	}
	for _, mat := range m.Materials {
		gpu.Release(mat.Texture)
	}
}

// Upload creates the GPU side of data. Materials bind with the pipeline's
// diffuse layout and sampler. On failure everything created so far is
// released.
func Upload(dev gpu.Device, queue gpu.Queue, p *Pipeline, data *asset.ModelData) (_ *Model, err error) {
	model := &Model{Name: data.Name}
	defer func() {
		if err != nil {
			model.Release()
		}
	}()

	materials := data.Materials
	if len(materials) == 0 {
		materials = []asset.MaterialData{{Name: "default", Diffuse: asset.White()}}
	}

	for _, md := range materials {
		mat, err := uploadMaterial(dev, queue, p, data.Name, md)
		if mat != nil {
			model.Materials = append(model.Materials, mat)
		}
		if err != nil {
			return nil, err
		}
	}

	for i, md := range data.Meshes {
		mesh := &Mesh{Name: md.Name, IndexCount: uint32(len(md.Indices)), Material: md.Material}
		if len(data.Materials) > 0 {
			mesh.Material = data.MaterialIndex(i)
		}
		model.Meshes = append(model.Meshes, mesh)

		mesh.VertexBuffer, err = dev.CreateBuffer(gpu.BufferDesc{
			Label:    fmt.Sprintf("%s/%s vertices", data.Name, md.Name),
			Contents: PackVertices(md.Vertices),
			Usage:    gpu.BufferUsageVertex,
		})
		if err != nil {
			return nil, fmt.Errorf("render: upload %s: %w", data.Name, err)
		}
		mesh.IndexBuffer, err = dev.CreateBuffer(gpu.BufferDesc{
			Label:    fmt.Sprintf("%s/%s indices", data.Name, md.Name),
			Contents: gpu.Uint32Bytes(md.Indices),
			Usage:    gpu.BufferUsageIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("render: upload %s: %w", data.Name, err)
		}
	}
	return model, nil
}

func uploadMaterial(dev gpu.Device, queue gpu.Queue, p *Pipeline, model string, md asset.MaterialData) (*Material, error) {
	img := md.Diffuse
	if img == nil {
		img = asset.White()
	}
	w, h := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())
	mat := &Material{Name: md.Name}

	var err error
	mat.Texture, err = dev.CreateTexture(gpu.TextureDesc{
		Label:   fmt.Sprintf("%s/%s diffuse", model, md.Name),
		Width:   w,
		Height:  h,
		Format:  gpu.TextureFormatRGBA8UnormSrgb,
		Sampled: true,
	})
	if err != nil {
		return nil, fmt.Errorf("render: upload material %s: %w", md.Name, err)
	}
	if err := queue.WriteTexture(mat.Texture, img.Pix, w, h); err != nil {
		return mat, fmt.Errorf("render: write texture %s: %w", md.Name, err)
	}
	mat.BindGroup, err = dev.CreateBindGroup(gpu.BindGroupDesc{
		Label:  fmt.Sprintf("%s/%s diffuse bind group", model, md.Name),
		Layout: p.DiffuseLayout,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, Texture: mat.Texture},
			{Binding: 1, Sampler: p.Sampler},
		},
	})
	if err != nil {
		return mat, fmt.Errorf("render: upload material %s: %w", md.Name, err)
	}
	return mat, nil
}

// Models owns every uploaded model, keyed by asset name. It is only touched
// by startup systems and teardown.
type Models struct {
	byName map[string]*Model
}

func NewModels() *Models {
	return &Models{byName: make(map[string]*Model)}
}

func (m *Models) Get(name string) (*Model, bool) {
	model, ok := m.byName[name]
	return model, ok
}

func (m *Models) Put(name string, model *Model) {
	if m.byName == nil {
		m.byName = make(map[string]*Model)
	}
	m.byName[name] = model
}

func (m *Models) Len() int {
	return len(m.byName)
}

// Release frees every cached model and empties the cache.
func (m *Models) Release() {
	for name, model := range m.byName {
		model.Release()
		delete(m.byName, name)
	}
}
