package render

import (
	"fmt"

	"github.com/plus3/cubeview/ecs"
)

// Resize reconfigures the surface to width x height, rebuilds the depth
// texture and updates every camera's aspect. A zero dimension is ignored,
// as is a resize before startup has built the display.
func Resize(storage *ecs.Storage, width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	display := ecs.GetSingleton[Display](storage)
	if display == nil {
		return nil
	}

	display.Config.Width = width
	display.Config.Height = height
	if err := display.Surface.Configure(display.Config); err != nil {
		return fmt.Errorf("render: resize surface: %w", err)
	}

	if p, g := ecs.GetSingleton[Pipeline](storage), ecs.GetSingleton[GPU](storage); p != nil && g != nil && p.Pipeline != nil {
		if err := p.ResizeDepth(g.Device, width, height); err != nil {
			return err
		}
	}

	for c := range ecs.NewView[struct{ *Camera }](storage).Values() {
		c.Camera.SetAspect(width, height)
	}
	return nil
}
