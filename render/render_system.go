package render

import (
	"errors"
	"fmt"

	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/gpu"
	"github.com/plus3/cubeview/logging"
	"go.uber.org/zap"
)

// overflowWarnEvery is how many frames pass between slot overflow warnings.
const overflowWarnEvery = 300

// RenderSystem draws every Model with a Transform from the first camera's
// point of view. It mutates no component.
type RenderSystem struct {
	GPU       ecs.Singleton[GPU]            `ecs:"read"`
	Display   ecs.Singleton[Display]        `ecs:"read"`
	Pipeline  ecs.Singleton[Pipeline]       `ecs:"read"`
	Settings  ecs.Singleton[RenderSettings] `ecs:"read"`
	Cameras   ecs.Query[struct{ *Camera }]  `ecs:"read"`
	Drawables ecs.Query[struct {
		*Model
		*Transform
	}] `ecs:"read"`
	Logger *zap.Logger

	lastOverflowWarn uint64
}

func (s *RenderSystem) Execute(frame *ecs.UpdateFrame) error {
	g, display, p := s.GPU.Get(), s.Display.Get(), s.Pipeline.Get()
	if g == nil || display == nil || p == nil || p.Pipeline == nil {
		return nil
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Provide()
	}
	settings := DefaultRenderSettings()
	if rs := s.Settings.Get(); rs != nil {
		settings = *rs
	}

	image, err := display.Surface.Acquire()
	switch {
	case err == nil:
	case errors.Is(err, gpu.ErrSurfaceLost), errors.Is(err, gpu.ErrSurfaceOutdated):
		logger.Warn("surface needs reconfiguring", zap.Uint64("frame", frame.Tick), zap.Error(err))
		if err := display.Surface.Configure(display.Config); err != nil {
			logger.Warn("reconfigure surface", zap.Error(err))
		}
		return nil
	case errors.Is(err, gpu.ErrOutOfMemory):
		return fmt.Errorf("render: acquire surface: %w", err)
	default:
		logger.Warn("skipping frame", zap.Uint64("frame", frame.Tick), zap.Error(err))
		return nil
	}
	defer image.Release()

	encoder, err := g.Device.CreateEncoder("render encoder")
	if err != nil {
		logger.Warn("create encoder", zap.Error(err))
		return nil
	}
	defer encoder.Release()

	pass := encoder.BeginPass(gpu.PassDesc{
		Label:      "render pass",
		Target:     image,
		ClearColor: settings.ClearColor,
		Depth:      p.Depth,
		DepthClear: 1,
	})
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(1, p.CameraGroup, nil)

	var writeErr error
	slot, skipped := 0, 0
	for d := range s.Drawables.Values() {
		if slot >= p.Slots {
			skipped++
			continue
		}
		offset := WorldOffset(slot)
		if err := g.Queue.WriteBuffer(p.WorldBuffer, uint64(offset), gpu.Mat4Bytes(d.Transform.Matrix)); err != nil {
			writeErr = err
			break
		}
		pass.SetBindGroup(2, p.WorldGroup, []uint32{offset})
		for _, mesh := range d.Model.Meshes {
			pass.SetBindGroup(0, d.Model.MaterialFor(mesh).BindGroup, nil)
			pass.SetVertexBuffer(0, mesh.VertexBuffer)
			pass.SetIndexBuffer(mesh.IndexBuffer)
			pass.DrawIndexed(mesh.IndexCount)
		}
		slot++
	}
	if skipped > 0 && (s.lastOverflowWarn == 0 || frame.Tick-s.lastOverflowWarn >= overflowWarnEvery) {
		s.lastOverflowWarn = frame.Tick
		logger.Warn("too many drawable entities",
			zap.Int("slots", p.Slots),
			zap.Int("skipped", skipped),
			zap.Uint64("frame", frame.Tick))
	}

	if err := pass.End(); err != nil {
		logger.Warn("end render pass", zap.Error(err))
		return nil
	}
	if writeErr != nil {
		logger.Warn("write world uniform", zap.Error(writeErr))
		return nil
	}

	for c := range s.Cameras.Values() {
		if err := g.Queue.WriteBuffer(p.CameraBuffer, 0, gpu.Mat4Bytes(c.Camera.Uniform)); err != nil {
			logger.Warn("write camera uniform", zap.Error(err))
			return nil
		}
		break
	}

	cmd, err := encoder.Finish()
	if err != nil {
		logger.Warn("finish encoder", zap.Error(err))
		return nil
	}
	g.Queue.Submit(cmd)
	cmd.Release()
	image.Present()
	return nil
}
