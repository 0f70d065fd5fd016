package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/plus3/cubeview/gpu"
)

type texture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   uint32
	height  uint32
}

func (t *texture) Release() {
	t.view.Release()
	t.texture.Release()
}

type pipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	module   *wgpu.ShaderModule
}

func (p *pipeline) Release() {
	p.pipeline.Release()
	p.layout.Release()
	p.module.Release()
}

// Device creates objects on a wgpu device.
type Device struct {
	device *wgpu.Device
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	var (
		buf *wgpu.Buffer
		err error
	)
	if desc.Contents != nil {
		buf, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    toBufferUsage(desc.Usage),
		})
	} else {
		buf, err = d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: toBufferUsage(desc.Usage),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("webgpu: buffer %q: %w", desc.Label, classify(err))
	}
	return buf, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	usage := wgpu.TextureUsageRenderAttachment
	if desc.Sampled {
		usage = wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toTextureFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: texture %q: %w", desc.Label, classify(err))
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: texture view %q: %w", desc.Label, err)
	}
	return &texture{texture: tex, view: view, width: desc.Width, height: desc.Height}, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     toFilterMode(desc.MagFilter),
		MinFilter:     toFilterMode(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: sampler %q: %w", desc.Label, err)
	}
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDesc) (gpu.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: toShaderStage(e.Visibility),
		}
		switch e.Kind {
		case gpu.BindingUniform:
			entry.Buffer = wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: e.DynamicOffset,
				MinBindingSize:   e.MinSize,
			}
		case gpu.BindingTexture:
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case gpu.BindingSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			}
		}
		entries[i] = entry
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: bind group layout %q: %w", desc.Label, err)
	}
	return l, nil
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDesc) (gpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpu.Buffer)
			entry.Size = wgpu.WholeSize
			if e.Size != 0 {
				entry.Size = e.Size
			}
		case e.Texture != nil:
			entry.TextureView = e.Texture.(*texture).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpu.Sampler)
		}
		entries[i] = entry
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpu.BindGroupLayout),
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: bind group %q: %w", desc.Label, err)
	}
	return bg, nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (_ gpu.RenderPipeline, err error) {
	p := &pipeline{}
	defer func() {
		if err != nil {
			if p.layout != nil {
				p.layout.Release()
			}
			if p.module != nil {
				p.module.Release()
			}
		}
	}()

	p.module, err = d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Shader},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: shader %q: %w", desc.Label, err)
	}

	layouts := make([]*wgpu.BindGroupLayout, len(desc.Layouts))
	for i, l := range desc.Layouts {
		layouts[i] = l.(*wgpu.BindGroupLayout)
	}
	p.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: pipeline layout %q: %w", desc.Label, err)
	}

	attrs := make([]wgpu.VertexAttribute, len(desc.Vertex.Attributes))
	for i, a := range desc.Vertex.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         toVertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}

	cull := wgpu.CullModeNone
	if desc.CullBack {
		cull = wgpu.CullModeBack
	}

	rpd := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: wgpu.VertexState{
			Module:     p.module,
			EntryPoint: desc.VertexEntry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: desc.Vertex.Stride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes:  attrs,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.module,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format:    toTextureFormat(desc.ColorFormat),
				Blend:     &wgpu.BlendStateReplace,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
	}
	if desc.Depth != nil {
		compare := wgpu.CompareFunctionAlways
		if desc.Depth.CompareLess {
			compare = wgpu.CompareFunctionLess
		}
		rpd.DepthStencil = &wgpu.DepthStencilState{
			Format:            toTextureFormat(desc.Depth.Format),
			DepthWriteEnabled: desc.Depth.WriteEnabled,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	p.pipeline, err = d.device.CreateRenderPipeline(rpd)
	if err != nil {
		return nil, fmt.Errorf("webgpu: pipeline %q: %w", desc.Label, err)
	}
	return p, nil
}

func (d *Device) CreateEncoder(label string) (gpu.Encoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("webgpu: encoder: %w", classify(err))
	}
	return &encoder{encoder: enc}, nil
}

// Queue uploads and submits on a wgpu queue.
type Queue struct {
	queue *wgpu.Queue
}

var _ gpu.Queue = (*Queue)(nil)

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	if err := q.queue.WriteBuffer(buf.(*wgpu.Buffer), offset, data); err != nil {
		return fmt.Errorf("webgpu: write buffer: %w", classify(err))
	}
	return nil
}

func (q *Queue) WriteTexture(tex gpu.Texture, pixels []byte, width, height uint32) error {
	t := tex.(*texture)
	err := q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * width,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("webgpu: write texture: %w", classify(err))
	}
	return nil
}

func (q *Queue) Submit(cmds ...gpu.CommandBuffer) {
	bufs := make([]*wgpu.CommandBuffer, len(cmds))
	for i, c := range cmds {
		bufs[i] = c.(*wgpu.CommandBuffer)
	}
	q.queue.Submit(bufs...)
}

type encoder struct {
	encoder *wgpu.CommandEncoder
}

func (e *encoder) BeginPass(desc gpu.PassDesc) gpu.Pass {
	rpd := &wgpu.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    desc.Target.(*surfaceImage).view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: desc.ClearColor.R,
				G: desc.ClearColor.G,
				B: desc.ClearColor.B,
				A: desc.ClearColor.A,
			},
		}},
	}
	if desc.Depth != nil {
		rpd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.(*texture).view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.DepthClear,
		}
	}
	return &pass{pass: e.encoder.BeginRenderPass(rpd)}
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	cmd, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: finish: %w", classify(err))
	}
	return cmd, nil
}

func (e *encoder) Release() {
	e.encoder.Release()
}

type pass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *pass) SetPipeline(pl gpu.RenderPipeline) {
	p.pass.SetPipeline(pl.(*pipeline).pipeline)
}

func (p *pass) SetBindGroup(group uint32, bg gpu.BindGroup, dynamicOffsets []uint32) {
	p.pass.SetBindGroup(group, bg.(*wgpu.BindGroup), dynamicOffsets)
}

func (p *pass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpu.Buffer), 0, wgpu.WholeSize)
}

func (p *pass) SetIndexBuffer(buf gpu.Buffer) {
	p.pass.SetIndexBuffer(buf.(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *pass) DrawIndexed(indexCount uint32) {
	p.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (p *pass) End() error {
	err := p.pass.End()
	p.pass.Release()
	return err
}
