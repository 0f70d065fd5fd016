// Command cubeview opens a window and renders the configured scene.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plus3/cubeview/app"
	"github.com/plus3/cubeview/config"
	"github.com/plus3/cubeview/gpu/webgpu"
	"github.com/plus3/cubeview/logging"
	"github.com/plus3/cubeview/platform"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML configuration file.")
	logLevel := flag.String("log-level", "", "Override log.level from the config.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(*configPath, cfg, logger); err != nil {
		logger.Error("fatal", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(path string, cfg *config.Config, logger *zap.Logger) error {
	window, err := platform.NewWindow(cfg.Window, logger)
	if err != nil {
		return err
	}
	defer window.Close()

	backend, err := webgpu.New(window.SurfaceDescriptor())
	if err != nil {
		return err
	}
	defer backend.Release()

	width, height := window.Size()
	a, cleanup, err := app.InitializeApp(app.ConfigPath(path), cfg, logger, app.Graphics{
		Device:  backend.Device(),
		Queue:   backend.Queue(),
		Surface: backend.Surface(),
		Format:  backend.Format(),
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return err
	}
	defer cleanup()
	defer a.Close()

	logger.Info("running",
		zap.String("config", path),
		zap.Uint32("width", width),
		zap.Uint32("height", height))
	return window.Run(a)
}
