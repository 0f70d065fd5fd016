package headless

import (
	"errors"
	"fmt"

	"github.com/plus3/cubeview/gpu"
)

var errReleased = errors.New("headless: handle already released")

// Device records object creation.
type Device struct {
	rec *Recorder
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	return checked(d.rec.create(OpCreateBuffer, desc.Label, func(h *Handle) {
		if desc.Contents != nil {
			h.Data = append([]byte(nil), desc.Contents...)
		} else {
			h.Data = make([]byte, desc.Size)
		}
	}))
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("headless: texture %q has zero size", desc.Label)
	}
	return checked(d.rec.create(OpCreateTexture, desc.Label, func(h *Handle) {
		h.Width, h.Height = desc.Width, desc.Height
	}))
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	return checked(d.rec.create(OpCreateSampler, desc.Label, nil))
}

func (d *Device) CreateBindGroupLayout(desc gpu.BindGroupLayoutDesc) (gpu.BindGroupLayout, error) {
	return checked(d.rec.create(OpCreateLayout, desc.Label, nil))
}

func (d *Device) CreateBindGroup(desc gpu.BindGroupDesc) (gpu.BindGroup, error) {
	if l := asHandle(desc.Layout); l == nil || l.Released {
		return nil, fmt.Errorf("headless: bind group %q: layout: %w", desc.Label, errReleased)
	}
	for _, e := range desc.Entries {
		for _, res := range []any{e.Buffer, e.Texture, e.Sampler} {
			if h := asHandle(res); h != nil && h.Released {
				return nil, fmt.Errorf("headless: bind group %q binding %d: %w", desc.Label, e.Binding, errReleased)
			}
		}
	}
	return checked(d.rec.create(OpCreateBindGroup, desc.Label, nil))
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.RenderPipeline, error) {
	if desc.VertexEntry == "" || desc.FragmentEntry == "" {
		return nil, fmt.Errorf("headless: pipeline %q: missing entry point", desc.Label)
	}
	return checked(d.rec.create(OpCreatePipeline, desc.Label, nil))
}

func (d *Device) CreateEncoder(label string) (gpu.Encoder, error) {
	h, err := d.rec.create(OpCreateEncoder, label, nil)
	if err != nil {
		return nil, err
	}
	return &encoder{Handle: h}, nil
}

// Queue records uploads and submissions.
type Queue struct {
	rec *Recorder
}

var _ gpu.Queue = (*Queue)(nil)

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	h := asHandle(buf)
	if h == nil || h.Released {
		return fmt.Errorf("headless: write buffer: %w", errReleased)
	}
	q.rec.mu.Lock()
	defer q.rec.mu.Unlock()
	if offset+uint64(len(data)) > uint64(len(h.Data)) {
		return fmt.Errorf("headless: write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, h.Label, len(h.Data))
	}
	copy(h.Data[offset:], data)
	q.rec.appendLocked(Op{
		Kind:   OpWriteBuffer,
		Label:  h.Label,
		Handle: h,
		Offset: offset,
		Data:   append([]byte(nil), data...),
	})
	return nil
}

func (q *Queue) WriteTexture(tex gpu.Texture, pixels []byte, width, height uint32) error {
	h := asHandle(tex)
	if h == nil || h.Released {
		return fmt.Errorf("headless: write texture: %w", errReleased)
	}
	if uint64(len(pixels)) != uint64(width)*uint64(height)*4 {
		return fmt.Errorf("headless: texture %q: got %d bytes for %dx%d", h.Label, len(pixels), width, height)
	}
	q.rec.record(Op{Kind: OpWriteTexture, Label: h.Label, Handle: h})
	return nil
}

func (q *Queue) Submit(cmds ...gpu.CommandBuffer) {
	for _, c := range cmds {
		q.rec.record(Op{Kind: OpSubmit, Handle: asHandle(c)})
	}
}

// Surface records configuration and image acquisition.
type Surface struct {
	rec *Recorder
}

var _ gpu.Surface = (*Surface)(nil)

func (s *Surface) Configure(cfg gpu.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("headless: configure with zero size %dx%d", cfg.Width, cfg.Height)
	}
	s.rec.mu.Lock()
	defer s.rec.mu.Unlock()
	s.rec.configures++
	s.rec.surface = cfg
	s.rec.appendLocked(Op{Kind: OpConfigure, Config: cfg})
	return nil
}

func (s *Surface) Acquire() (gpu.SurfaceImage, error) {
	s.rec.mu.Lock()
	if len(s.rec.acquireErrs) > 0 {
		err := s.rec.acquireErrs[0]
		s.rec.acquireErrs = s.rec.acquireErrs[1:]
		s.rec.mu.Unlock()
		return nil, err
	}
	s.rec.mu.Unlock()

	h, err := s.rec.create(OpAcquire, "surface image", nil)
	if err != nil {
		return nil, err
	}
	return &image{Handle: h}, nil
}

type image struct {
	*Handle
}

func (i *image) Present() {
	i.rec.record(Op{Kind: OpPresent, Handle: i.Handle})
}

type encoder struct {
	*Handle
}

func (e *encoder) BeginPass(desc gpu.PassDesc) gpu.Pass {
	e.rec.record(Op{Kind: OpBeginPass, Label: desc.Label, Clear: desc.ClearColor})
	return &pass{rec: e.rec}
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	return checked(e.rec.create(OpFinish, e.Label, nil))
}

type pass struct {
	rec   *Recorder
	ended bool
}

func (p *pass) SetPipeline(pl gpu.RenderPipeline) {
	p.rec.record(Op{Kind: OpSetPipeline, Handle: asHandle(pl)})
}

func (p *pass) SetBindGroup(group uint32, bg gpu.BindGroup, dynamicOffsets []uint32) {
	p.rec.record(Op{
		Kind:    OpSetBindGroup,
		Handle:  asHandle(bg),
		Group:   group,
		Offsets: append([]uint32(nil), dynamicOffsets...),
	})
}

func (p *pass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.rec.record(Op{Kind: OpSetVertexBuffer, Handle: asHandle(buf), Group: slot})
}

func (p *pass) SetIndexBuffer(buf gpu.Buffer) {
	p.rec.record(Op{Kind: OpSetIndexBuffer, Handle: asHandle(buf)})
}

func (p *pass) DrawIndexed(indexCount uint32) {
	p.rec.record(Op{Kind: OpDrawIndexed, IndexCount: indexCount})
}

func (p *pass) End() error {
	if p.ended {
		return errors.New("headless: pass ended twice")
	}
	p.ended = true
	p.rec.record(Op{Kind: OpEndPass})
	return nil
}

// checked keeps a failed creation from producing a non-nil interface holding
// a nil handle.
func checked(h *Handle, err error) (gpu.Releaser, error) {
	if err != nil {
		return nil, err
	}
	return h, nil
}
