package app

import (
	"github.com/google/wire"
	"github.com/plus3/cubeview/asset"
	"github.com/plus3/cubeview/config"
	"go.uber.org/zap"
)

// ConfigPath is the file the config was loaded from; the watcher follows it.
type ConfigPath string

// ProviderSet builds an App from a loaded config, a logger and graphics.
var ProviderSet = wire.NewSet(
	asset.NewTextureCache,
	ProvideRegistry,
	wire.Bind(new(asset.ModelLoader), new(*asset.Registry)),
	ProvideUpdates,
	New,
)

func ProvideRegistry(cfg *config.Config, textures *asset.TextureCache, logger *zap.Logger) *asset.Registry {
	return asset.NewRegistry(cfg.Assets.Dir, textures, logger)
}

// ProvideUpdates starts a config watcher when cfg.Watch is set.
func ProvideUpdates(path ConfigPath, cfg *config.Config, logger *zap.Logger) (ConfigUpdates, func(), error) {
	if !cfg.Watch || path == "" {
		return ConfigUpdates{}, func() {}, nil
	}
	w, err := config.NewWatcher(string(path), logger)
	if err != nil {
		return ConfigUpdates{}, nil, err
	}
	cleanup := func() {
		if err := w.Close(); err != nil {
			logger.Warn("close config watcher", zap.Error(err))
		}
	}
	return ConfigUpdates{C: w.Updates()}, cleanup, nil
}
