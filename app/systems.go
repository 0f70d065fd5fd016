package app

import (
	"github.com/plus3/cubeview/config"
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/input"
	"github.com/plus3/cubeview/logging"
	"github.com/plus3/cubeview/render"
	"go.uber.org/zap"
)

// FrameCount counts rendered ticks.
type FrameCount struct {
	Frames uint64
}

// FrameCounterSystem bumps FrameCount and logs this tick's key events at
// debug level.
type FrameCounterSystem struct {
	Count  ecs.Singleton[FrameCount]
	Events ecs.Singleton[input.KeyboardEvents] `ecs:"read"`
	Logger *zap.Logger
}

func (s *FrameCounterSystem) Execute(frame *ecs.UpdateFrame) error {
	count := s.Count.Get()
	if count == nil {
		return nil
	}
	count.Frames++
	logger := s.Logger
	if logger == nil {
		logger = logging.Provide()
	}
	if q := s.Events.Get(); q != nil {
		for _, ev := range q.Read() {
			logger.Debug("key",
				zap.Uint64("frame", count.Frames),
				zap.Stringer("key", ev.Key),
				zap.Stringer("state", ev.State))
		}
	}
	return nil
}

// ConfigUpdates is the receive side of the hot reload channel. A nil
// channel means reloading is off.
type ConfigUpdates struct {
	C <-chan *config.Config
}

// ConfigReloadSystem applies the newest reloaded config, if any, to the
// cameras and render settings. Window, scene and slot changes need a
// restart and are left alone.
type ConfigReloadSystem struct {
	Updates  ecs.Singleton[ConfigUpdates] `ecs:"read"`
	Settings ecs.Singleton[render.RenderSettings]
	Cameras  ecs.Query[struct{ *render.Camera }]
	Logger   *zap.Logger
}

func (s *ConfigReloadSystem) Execute(frame *ecs.UpdateFrame) error {
	updates := s.Updates.Get()
	if updates == nil || updates.C == nil {
		return nil
	}

	var latest *config.Config
drain:
	for {
		select {
		case cfg, ok := <-updates.C:
			if !ok {
				break drain
			}
			if cfg != nil {
				latest = cfg
			}
		default:
			break drain
		}
	}
	if latest == nil {
		return nil
	}

	if settings := s.Settings.Get(); settings != nil {
		settings.ClearColor = renderSettings(latest).ClearColor
	}
	cam := cameraSettings(latest)
	for v := range s.Cameras.Values() {
		v.Camera.Apply(cam)
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Provide()
	}
	logger.Info("config applied",
		zap.Uint64("frame", frame.Tick),
		zap.Float32("speed", cam.Speed),
		zap.Float32("fov_y", cam.FovY))
	return nil
}
