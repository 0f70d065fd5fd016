package render

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/cubeview/gpu"
)

//go:embed shader.wgsl
var shaderSource string

// Labels of the objects Initialize creates, in creation order.
const (
	LabelDiffuseLayout = "diffuse bind group layout"
	LabelSampler       = "diffuse sampler"
	LabelCameraLayout  = "camera bind group layout"
	LabelCameraBuffer  = "camera buffer"
	LabelCameraGroup   = "camera bind group"
	LabelWorldLayout   = "world bind group layout"
	LabelWorldBuffer   = "world buffer"
	LabelWorldGroup    = "world bind group"
	LabelDepth         = "depth texture"
	LabelPipeline      = "render pipeline"
)

// DepthFormat is the format of the depth attachment.
const DepthFormat = gpu.TextureFormatDepth32Float

// Pipeline is everything a frame binds that is not owned by a model.
type Pipeline struct {
	Pipeline gpu.RenderPipeline

	DiffuseLayout gpu.BindGroupLayout
	Sampler       gpu.Sampler

	CameraLayout gpu.BindGroupLayout
	CameraBuffer gpu.Buffer
	CameraGroup  gpu.BindGroup

	WorldLayout gpu.BindGroupLayout
	WorldBuffer gpu.Buffer
	WorldGroup  gpu.BindGroup
	// Slots is how many entities the world buffer holds.
	Slots int

	Depth gpu.Texture
}

// WorldOffset is the dynamic offset of world slot i.
func WorldOffset(i int) uint32 {
	return uint32(i * gpu.UniformAlignment)
}

// Initialize builds the pipeline bundle for a surface configured with cfg.
// If any step fails, the objects already created are released.
func Initialize(dev gpu.Device, cfg gpu.SurfaceConfig, slots int) (_ *Pipeline, err error) {
	if slots <= 0 {
		return nil, fmt.Errorf("render: need at least one world slot, got %d", slots)
	}
	p := &Pipeline{Slots: slots}
	defer func() {
		if err != nil {
			p.Release()
		}
	}()

	p.DiffuseLayout, err = dev.CreateBindGroupLayout(gpu.BindGroupLayoutDesc{
		Label: LabelDiffuseLayout,
		Entries: []gpu.LayoutEntry{
			{Binding: 0, Visibility: gpu.StageFragment, Kind: gpu.BindingTexture},
			{Binding: 1, Visibility: gpu.StageFragment, Kind: gpu.BindingSampler},
		},
	})
	if err != nil {
		return nil, wrapInit(LabelDiffuseLayout, err)
	}
	p.Sampler, err = dev.CreateSampler(gpu.SamplerDesc{
		Label:     LabelSampler,
		MagFilter: gpu.FilterLinear,
		MinFilter: gpu.FilterNearest,
	})
	if err != nil {
		return nil, wrapInit(LabelSampler, err)
	}

	p.CameraLayout, err = dev.CreateBindGroupLayout(gpu.BindGroupLayoutDesc{
		Label: LabelCameraLayout,
		Entries: []gpu.LayoutEntry{
			{Binding: 0, Visibility: gpu.StageVertex, Kind: gpu.BindingUniform, MinSize: gpu.Mat4Size},
		},
	})
	if err != nil {
		return nil, wrapInit(LabelCameraLayout, err)
	}
	p.CameraBuffer, err = dev.CreateBuffer(gpu.BufferDesc{
		Label:    LabelCameraBuffer,
		Contents: gpu.Mat4Bytes(mgl32.Ident4()),
		Usage:    gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, wrapInit(LabelCameraBuffer, err)
	}
	p.CameraGroup, err = dev.CreateBindGroup(gpu.BindGroupDesc{
		Label:   LabelCameraGroup,
		Layout:  p.CameraLayout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: p.CameraBuffer}},
	})
	if err != nil {
		return nil, wrapInit(LabelCameraGroup, err)
	}

	p.WorldLayout, err = dev.CreateBindGroupLayout(gpu.BindGroupLayoutDesc{
		Label: LabelWorldLayout,
		Entries: []gpu.LayoutEntry{
			{Binding: 0, Visibility: gpu.StageVertex, Kind: gpu.BindingUniform, DynamicOffset: true, MinSize: gpu.Mat4Size},
		},
	})
	if err != nil {
		return nil, wrapInit(LabelWorldLayout, err)
	}
	world := make([]byte, slots*gpu.UniformAlignment)
	for i := range slots {
		gpu.PutMat4(world[WorldOffset(i):], mgl32.Ident4())
	}
	p.WorldBuffer, err = dev.CreateBuffer(gpu.BufferDesc{
		Label:    LabelWorldBuffer,
		Contents: world,
		Usage:    gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, wrapInit(LabelWorldBuffer, err)
	}
	p.WorldGroup, err = dev.CreateBindGroup(gpu.BindGroupDesc{
		Label:   LabelWorldGroup,
		Layout:  p.WorldLayout,
		Entries: []gpu.BindGroupEntry{{Binding: 0, Buffer: p.WorldBuffer, Size: gpu.Mat4Size}},
	})
	if err != nil {
		return nil, wrapInit(LabelWorldGroup, err)
	}

	if err = p.ResizeDepth(dev, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	p.Pipeline, err = dev.CreatePipeline(gpu.PipelineDesc{
		Label:         LabelPipeline,
		Shader:        shaderSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Layouts:       []gpu.BindGroupLayout{p.DiffuseLayout, p.CameraLayout, p.WorldLayout},
		Vertex:        VertexLayout,
		ColorFormat:   cfg.Format,
		Depth: &gpu.DepthState{
			Format:       DepthFormat,
			WriteEnabled: true,
			CompareLess:  true,
		},
		CullBack: true,
	})
	if err != nil {
		return nil, wrapInit(LabelPipeline, err)
	}
	return p, nil
}

func wrapInit(label string, err error) error {
	return fmt.Errorf("render: create %s: %w", label, err)
}

// ResizeDepth replaces the depth texture with one of the given size.
func (p *Pipeline) ResizeDepth(dev gpu.Device, width, height uint32) error {
	depth, err := dev.CreateTexture(gpu.TextureDesc{
		Label:  LabelDepth,
		Width:  width,
		Height: height,
		Format: DepthFormat,
	})
	if err != nil {
		return wrapInit(LabelDepth, err)
	}
	gpu.Release(p.Depth)
	p.Depth = depth
	return nil
}

// Release destroys bind groups, then buffers, then textures and samplers,
// then layouts and finally the pipeline. Handles that were never created
// are skipped, so it is safe on a partially built bundle.
func (p *Pipeline) Release() {
	gpu.Release(p.CameraGroup, p.WorldGroup)
	gpu.Release(p.CameraBuffer, p.WorldBuffer)
	gpu.Release(p.Depth, p.Sampler)
	gpu.Release(p.DiffuseLayout, p.CameraLayout, p.WorldLayout)
	gpu.Release(p.Pipeline)
	*p = Pipeline{Slots: p.Slots}
}
