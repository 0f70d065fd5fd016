// Package gpu is the slice of a WebGPU-style API the renderer needs. The
// webgpu subpackage implements it on a real device; headless records calls
// for tests and benchmarks.
package gpu

import "errors"

var (
	// ErrSurfaceLost means the surface must be reconfigured before it can be
	// used again.
	ErrSurfaceLost = errors.New("gpu: surface lost")
	// ErrSurfaceOutdated means the surface no longer matches the window.
	ErrSurfaceOutdated = errors.New("gpu: surface outdated")
	// ErrSurfaceTimeout means no image became available in time.
	ErrSurfaceTimeout = errors.New("gpu: surface acquire timeout")
	// ErrOutOfMemory is unrecoverable.
	ErrOutOfMemory = errors.New("gpu: out of memory")
)

// Releaser is implemented by every handle the device hands out.
type Releaser interface {
	Release()
}

type (
	Buffer          interface{ Releaser }
	Texture         interface{ Releaser }
	Sampler         interface{ Releaser }
	BindGroupLayout interface{ Releaser }
	BindGroup       interface{ Releaser }
	RenderPipeline  interface{ Releaser }
	CommandBuffer   interface{ Releaser }
)

// BufferUsage is a bit set of buffer uses.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
)

// TextureFormat names the pixel formats the renderer uses.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8UnormSrgb
	TextureFormatRGBA8Unorm
	TextureFormatBGRA8Unorm
	TextureFormatDepth32Float
)

// PresentMode selects vsync behavior.
type PresentMode int

const (
	PresentModeFifo PresentMode = iota
	PresentModeMailbox
	PresentModeImmediate
)

// ParsePresentMode accepts "fifo", "mailbox" or "immediate".
func ParsePresentMode(s string) (PresentMode, bool) {
	switch s {
	case "", "fifo":
		return PresentModeFifo, true
	case "mailbox":
		return PresentModeMailbox, true
	case "immediate":
		return PresentModeImmediate, true
	}
	return PresentModeFifo, false
}

// ShaderStage is a bit set of pipeline stages.
type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

// BindingKind is what a layout entry binds.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingTexture
	BindingSampler
)

// BufferDesc describes a buffer. When Contents is set the buffer is created
// with that data and Size is ignored.
type BufferDesc struct {
	Label    string
	Contents []byte
	Size     uint64
	Usage    BufferUsage
}

// TextureDesc describes a 2D texture. Sampled textures can be bound and
// written; the others are render attachments.
type TextureDesc struct {
	Label   string
	Width   uint32
	Height  uint32
	Format  TextureFormat
	Sampled bool
}

// FilterMode selects texel filtering.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// SamplerDesc describes a clamp-to-edge sampler.
type SamplerDesc struct {
	Label     string
	MagFilter FilterMode
	MinFilter FilterMode
}

// LayoutEntry is one binding slot of a bind group layout.
type LayoutEntry struct {
	Binding       uint32
	Visibility    ShaderStage
	Kind          BindingKind
	DynamicOffset bool
	MinSize       uint64
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []LayoutEntry
}

// BindGroupEntry binds one resource. Exactly one of Buffer, Texture or
// Sampler is set. Size zero binds the whole buffer.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Size    uint64
	Texture Texture
	Sampler Sampler
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// VertexFormat is the type of one vertex attribute.
type VertexFormat int

const (
	VertexFloat32x2 VertexFormat = iota
	VertexFloat32x3
)

// VertexAttribute places one attribute inside a vertex.
type VertexAttribute struct {
	Format   VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout is the layout of vertex buffer slot 0.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// DepthState enables depth testing.
type DepthState struct {
	Format       TextureFormat
	WriteEnabled bool
	CompareLess  bool
}

// PipelineDesc describes a render pipeline.
type PipelineDesc struct {
	Label         string
	Shader        string
	VertexEntry   string
	FragmentEntry string
	Layouts       []BindGroupLayout
	Vertex        VertexLayout
	ColorFormat   TextureFormat
	Depth         *DepthState
	CullBack      bool
}

// SurfaceConfig is the configuration of the presentable surface.
type SurfaceConfig struct {
	Width       uint32
	Height      uint32
	Format      TextureFormat
	PresentMode PresentMode
}

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float64
}

// PassDesc describes a render pass with one color target and an optional
// depth target. Both are cleared on load.
type PassDesc struct {
	Label      string
	Target     SurfaceImage
	ClearColor Color
	Depth      Texture
	DepthClear float32
}

// Device creates GPU objects.
type Device interface {
	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateSampler(desc SamplerDesc) (Sampler, error)
	CreateBindGroupLayout(desc BindGroupLayoutDesc) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDesc) (BindGroup, error)
	CreatePipeline(desc PipelineDesc) (RenderPipeline, error)
	CreateEncoder(label string) (Encoder, error)
}

// Queue uploads data and submits work.
type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	// WriteTexture uploads tightly packed RGBA8 pixels.
	WriteTexture(tex Texture, pixels []byte, width, height uint32) error
	Submit(cmds ...CommandBuffer)
}

// Surface is the window's swap chain.
type Surface interface {
	Configure(cfg SurfaceConfig) error
	// Acquire returns the next image. Errors wrap one of the Err* sentinels
	// when the cause is known.
	Acquire() (SurfaceImage, error)
}

// SurfaceImage is one acquired swap chain image.
type SurfaceImage interface {
	Present()
	Release()
}

// Encoder records commands.
type Encoder interface {
	BeginPass(desc PassDesc) Pass
	Finish() (CommandBuffer, error)
	Release()
}

// Pass records draw commands into a render pass.
type Pass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(group uint32, bg BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer)
	DrawIndexed(indexCount uint32)
	End() error
}

// Release releases every non-nil handle in order.
func Release(handles ...Releaser) {
	for _, h := range handles {
		if h != nil && !isNilHandle(h) {
			h.Release()
		}
	}
}
