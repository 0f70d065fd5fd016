// Package render turns Model, Transform and Camera components into frames.
// It owns the pipeline bundle, uploads models and reacts to surface resizes.
package render

import (
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/gpu"
)

// GPU is the device and queue every system shares.
type GPU struct {
	Device gpu.Device
	Queue  gpu.Queue
}

// Display is the window surface and its current configuration.
type Display struct {
	Surface gpu.Surface
	Config  gpu.SurfaceConfig
}

// Aspect is width over height, or 1 when the surface has no area.
func (d *Display) Aspect() float32 {
	if d.Config.Width == 0 || d.Config.Height == 0 {
		return 1
	}
	return float32(d.Config.Width) / float32(d.Config.Height)
}

// RenderSettings are the tunables of the render system.
type RenderSettings struct {
	ClearColor gpu.Color
	// MaxDrawEntities is the number of world uniform slots.
	MaxDrawEntities int
}

// DefaultRenderSettings clears to a dark blue and draws up to 1024 entities.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		ClearColor:      gpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1},
		MaxDrawEntities: 1024,
	}
}

// RegisterComponents registers the render components.
func RegisterComponents(reg *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Camera](reg)
	ecs.RegisterComponent[Model](reg)
	ecs.RegisterComponent[Transform](reg)
}
