// Package app assembles the world: resources, stages and systems. The host
// drives it through Frame and the On* callbacks.
package app

import (
	"errors"
	"fmt"

	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/clock"
	"github.com/plus3/cubeview/config"
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/gpu"
	"github.com/plus3/cubeview/input"
	"github.com/plus3/cubeview/render"
	"go.uber.org/zap"
)

// Stage names in run order.
const (
	StageStartup = "startup"
	StageScene   = "scene"
	StageFirst   = "first"
	StageUpdate  = "update"
	StageRender  = "render"
)

// Graphics is what the host hands over: a device with a surface already
// attached to a window of Width x Height.
type Graphics struct {
	Device  gpu.Device
	Queue   gpu.Queue
	Surface gpu.Surface
	Format  gpu.TextureFormat
	Width   uint32
	Height  uint32
}

type App struct {
	logger    *zap.Logger
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	exit      bool
	closed    bool
}

// New configures the surface, inserts every resource and registers the
// systems. Nothing runs until the first Frame.
func New(cfg *config.Config, logger *zap.Logger, loader asset.ModelLoader, gfx Graphics, updates ConfigUpdates) (*App, error) {
	presentMode, ok := gpu.ParsePresentMode(cfg.Render.PresentMode)
	if !ok {
		return nil, fmt.Errorf("app: unknown present mode %q", cfg.Render.PresentMode)
	}
	surfaceConfig := gpu.SurfaceConfig{
		Width:       gfx.Width,
		Height:      gfx.Height,
		Format:      gfx.Format,
		PresentMode: presentMode,
	}
	if err := gfx.Surface.Configure(surfaceConfig); err != nil {
		return nil, fmt.Errorf("app: configure surface: %w", err)
	}

	registry := ecs.NewComponentRegistry()
	render.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	storage.AddSingleton(clock.New(nil))
	storage.AddSingleton(&input.KeyboardEvents{})
	storage.AddSingleton(render.GPU{Device: gfx.Device, Queue: gfx.Queue})
	storage.AddSingleton(render.Display{Surface: gfx.Surface, Config: surfaceConfig})
	storage.AddSingleton(renderSettings(cfg))
	storage.AddSingleton(render.NewModels())
	storage.AddSingleton(FrameCount{})
	storage.AddSingleton(updates)

	a := &App{
		logger:    logger,
		storage:   storage,
		scheduler: ecs.NewScheduler(storage),
	}
	if err := a.register(cfg, loader); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register(cfg *config.Config, loader asset.ModelLoader) error {
	s := a.scheduler
	for _, st := range []struct {
		name string
		opts []ecs.StageOption
	}{
		{StageStartup, []ecs.StageOption{ecs.RunOnce}},
		{StageScene, []ecs.StageOption{ecs.RunOnce}},
		{StageFirst, nil},
		{StageUpdate, nil},
		{StageRender, nil},
	} {
		if err := s.AddStage(st.name, st.opts...); err != nil {
			return err
		}
	}

	entities := make([]render.SceneEntity, len(cfg.Scene.Entities))
	for i, e := range cfg.Scene.Entities {
		entities[i] = render.SceneEntity{
			Model:     e.Model,
			Transform: render.FromRotationTranslation(e.Rotation.Axis.Vec(), e.Rotation.Degrees, e.Translation.Vec()),
		}
	}

	logger := a.logger.Named("systems")
	return errors.Join(
		s.Register(StageStartup, &render.StartupSystem{Logger: logger}),
		s.Register(StageScene, &render.SceneSystem{
			Loader:   loader,
			Entities: entities,
			Camera:   cameraSettings(cfg),
			Logger:   logger,
		}),
		s.Register(StageFirst, &clock.System{}),
		s.Register(StageFirst, &input.SwapSystem{}),
		s.Register(StageFirst, &ConfigReloadSystem{Logger: logger}),
		s.Register(StageUpdate, &render.CameraSystem{}),
		s.Register(StageUpdate, &FrameCounterSystem{Logger: logger}),
		s.Register(StageRender, &render.RenderSystem{Logger: logger}),
	)
}

func cameraSettings(cfg *config.Config) render.CameraSettings {
	c := cfg.Camera
	return render.CameraSettings{
		Eye:    c.Eye.Vec(),
		Target: c.Target.Vec(),
		Up:     c.Up.Vec(),
		FovY:   c.FovY,
		ZNear:  c.ZNear,
		ZFar:   c.ZFar,
		Speed:  c.Speed,
	}
}

func renderSettings(cfg *config.Config) render.RenderSettings {
	cc := cfg.Render.ClearColor
	return render.RenderSettings{
		ClearColor:      gpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
		MaxDrawEntities: cfg.Render.MaxDrawEntities,
	}
}

// Frame runs one tick. The first call also runs startup and scene loading.
// Any error is fatal.
func (a *App) Frame() error {
	if a.closed {
		return errors.New("app: frame after close")
	}
	if err := a.scheduler.Once(); err != nil {
		a.logger.Error("frame failed", zap.Uint64("frame", a.scheduler.Ticks()), zap.Error(err))
		return err
	}
	return nil
}

// OnKey queues a translated key event for the next tick.
func (a *App) OnKey(ev input.KeyboardEvent) {
	if ev.Key == input.KeyUnknown {
		return
	}
	if q := ecs.GetSingleton[input.KeyboardEvents](a.storage); q != nil {
		q.Send(ev)
	}
}

// OnResize applies a new surface size. Zero sizes, as reported for a
// minimized window, are ignored.
func (a *App) OnResize(width, height uint32) error {
	if err := render.Resize(a.storage, width, height); err != nil {
		a.logger.Error("resize failed", zap.Uint32("width", width), zap.Uint32("height", height), zap.Error(err))
		return err
	}
	return nil
}

// OnClose asks the host loop to stop after the current frame.
func (a *App) OnClose() {
	a.exit = true
}

// ShouldExit reports whether OnClose was called.
func (a *App) ShouldExit() bool {
	return a.exit
}

// Storage exposes the world for tools and tests.
func (a *App) Storage() *ecs.Storage {
	return a.storage
}

// Scheduler exposes the scheduler for stats.
func (a *App) Scheduler() *ecs.Scheduler {
	return a.scheduler
}

// Close releases every model and the pipeline. It is safe to call twice.
func (a *App) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if models := ecs.GetSingleton[render.Models](a.storage); models != nil {
		models.Release()
	}
	if p := ecs.GetSingleton[render.Pipeline](a.storage); p != nil {
		p.Release()
	}
	a.logger.Info("shutdown", zap.Uint64("frames", a.scheduler.Ticks()))
}
