package render

import (
	"fmt"

	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/ecs"
	"github.com/plus3/cubeview/logging"
	"go.uber.org/zap"
)

// StartupSystem builds the Pipeline singleton.
type StartupSystem struct {
	GPU      ecs.Singleton[GPU]            `ecs:"read"`
	Display  ecs.Singleton[Display]        `ecs:"read"`
	Settings ecs.Singleton[RenderSettings] `ecs:"read"`
	Logger   *zap.Logger
}

func (s *StartupSystem) Execute(frame *ecs.UpdateFrame) error {
	g, display := s.GPU.Get(), s.Display.Get()
	if g == nil || display == nil {
		return fmt.Errorf("render: startup needs GPU and Display resources")
	}
	slots := DefaultRenderSettings().MaxDrawEntities
	if settings := s.Settings.Get(); settings != nil && settings.MaxDrawEntities > 0 {
		slots = settings.MaxDrawEntities
	}

	p, err := Initialize(g.Device, display.Config, slots)
	if err != nil {
		return err
	}
	frame.Commands.InsertSingleton(p)
	logger := s.Logger
	if logger == nil {
		logger = logging.Provide()
	}
	logger.Info("pipeline ready",
		zap.Uint32("width", display.Config.Width),
		zap.Uint32("height", display.Config.Height),
		zap.Int("slots", slots))
	return nil
}

// SceneEntity places one model in the world.
type SceneEntity struct {
	Model     string
	Transform Transform
}

// SceneSystem uploads the scene's models and spawns its entities and camera.
// Each model name is loaded and uploaded once.
type SceneSystem struct {
	GPU      ecs.Singleton[GPU]      `ecs:"read"`
	Display  ecs.Singleton[Display]  `ecs:"read"`
	Pipeline ecs.Singleton[Pipeline] `ecs:"read"`
	Models   ecs.Singleton[Models]

	Loader   asset.ModelLoader
	Entities []SceneEntity
	Camera   CameraSettings
	Logger   *zap.Logger
}

func (s *SceneSystem) Execute(frame *ecs.UpdateFrame) error {
	g, display, p, models := s.GPU.Get(), s.Display.Get(), s.Pipeline.Get(), s.Models.Get()
	if g == nil || display == nil || p == nil || models == nil {
		return fmt.Errorf("render: scene needs GPU, Display, Pipeline and Models resources")
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Provide()
	}

	for _, ent := range s.Entities {
		model, ok := models.Get(ent.Model)
		if !ok {
			data, err := s.Loader.Load(ent.Model)
			if err != nil {
				return fmt.Errorf("render: load %s: %w", ent.Model, err)
			}
			model, err = Upload(g.Device, g.Queue, p, data)
			if err != nil {
				return err
			}
			models.Put(ent.Model, model)
			logger.Info("model uploaded",
				zap.String("model", ent.Model),
				zap.Int("meshes", len(model.Meshes)),
				zap.Int("materials", len(model.Materials)))
		}
		frame.Commands.Spawn(*model, ent.Transform)
	}

	frame.Commands.Spawn(NewCamera(s.Camera, display.Aspect()))
	return nil
}
