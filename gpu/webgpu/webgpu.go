// Package webgpu implements the gpu interfaces on github.com/cogentcore/webgpu.
package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/plus3/cubeview/gpu"
)

// Backend owns the instance, adapter and device behind one window surface.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface
	format   gpu.TextureFormat
}

// New creates a surface from desc and picks an adapter that can present to it.
func New(desc *wgpu.SurfaceDescriptor) (_ *Backend, err error) {
	b := &Backend{instance: wgpu.CreateInstance(nil)}
	defer func() {
		if err != nil {
			b.Release()
		}
	}()

	b.surface = b.instance.CreateSurface(desc)
	if b.surface == nil {
		return nil, fmt.Errorf("webgpu: create surface failed")
	}
	b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	b.device, err = b.adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	b.queue = b.device.GetQueue()

	caps := b.surface.GetCapabilities(b.adapter)
	b.format = preferredFormat(caps.Formats)
	if b.format == gpu.TextureFormatUndefined {
		return nil, fmt.Errorf("webgpu: surface offers no supported color format")
	}
	return b, nil
}

// preferredFormat picks the first sRGB format the surface offers, or the
// first supported one.
func preferredFormat(formats []wgpu.TextureFormat) gpu.TextureFormat {
	fallback := gpu.TextureFormatUndefined
	for _, f := range formats {
		tf, ok := fromTextureFormat(f)
		if !ok {
			continue
		}
		if tf == gpu.TextureFormatBGRA8UnormSrgb || tf == gpu.TextureFormatRGBA8UnormSrgb {
			return tf
		}
		if fallback == gpu.TextureFormatUndefined {
			fallback = tf
		}
	}
	return fallback
}

// Format is the surface color format chosen at creation.
func (b *Backend) Format() gpu.TextureFormat { return b.format }

func (b *Backend) Device() gpu.Device   { return &Device{device: b.device} }
func (b *Backend) Queue() gpu.Queue     { return &Queue{queue: b.queue} }
func (b *Backend) Surface() gpu.Surface { return &Surface{b: b} }

// Release tears down the device, adapter, surface and instance.
func (b *Backend) Release() {
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Surface is the window swap chain.
type Surface struct {
	b *Backend
}

func (s *Surface) Configure(cfg gpu.SurfaceConfig) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("webgpu: configure with zero size %dx%d", cfg.Width, cfg.Height)
	}
	s.b.surface.Configure(s.b.adapter, s.b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      toTextureFormat(cfg.Format),
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: toPresentMode(cfg.PresentMode),
		AlphaMode:   wgpu.CompositeAlphaModeAuto,
	})
	return nil
}

func (s *Surface) Acquire() (gpu.SurfaceImage, error) {
	tex, err := s.b.surface.GetCurrentTexture()
	if err != nil {
		return nil, classify(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: surface view: %w", err)
	}
	return &surfaceImage{surface: s.b.surface, texture: tex, view: view}, nil
}

type surfaceImage struct {
	surface *wgpu.Surface
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (i *surfaceImage) Present() {
	i.surface.Present()
}

func (i *surfaceImage) Release() {
	i.view.Release()
	i.texture.Release()
}
