//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/plus3/cubeview/config"
	"go.uber.org/zap"
)

func InitializeApp(path ConfigPath, cfg *config.Config, logger *zap.Logger, gfx Graphics) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
