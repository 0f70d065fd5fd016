// Command frame-bench runs the full cubeview frame against the headless GPU
// backend and prints timing, draw and memory figures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/plus3/cubeview/app"
	"github.com/plus3/cubeview/config"
	"github.com/plus3/cubeview/gpu"
	"github.com/plus3/cubeview/gpu/headless"
	"github.com/plus3/cubeview/logging"
	"go.uber.org/zap"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "How long to render for.")
	entityCount := flag.Int("entities", 1000, "Number of cubes in the scene.")
	assetsDir := flag.String("assets", "assets", "Directory holding cube.obj.")
	logLevel := flag.String("log-level", "warn", "Log level.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, *duration, *entityCount, *assetsDir, *gcPauseMetrics); err != nil {
		logger.Error("frame bench failed", zap.Error(err))
		os.Exit(1)
	}
}

// benchConfig lays the cubes out on a square grid in front of the camera.
func benchConfig(assetsDir string, entities int) *config.Config {
	cfg := config.Default()
	cfg.Assets.Dir = assetsDir
	cfg.Render.MaxDrawEntities = max(entities, 1)
	cfg.Scene.Entities = cfg.Scene.Entities[:0]

	side := 1
	for side*side < entities {
		side++
	}
	for i := range entities {
		x, z := float32(i%side)*2, -float32(i/side)*2
		cfg.Scene.Entities = append(cfg.Scene.Entities, config.Entity{
			Model:       "cube.obj",
			Rotation:    config.Rotation{Axis: config.Vec3{1, 0, 0}, Degrees: 45},
			Translation: config.Vec3{x, 0, z},
		})
	}
	return cfg
}

func run(logger *zap.Logger, duration time.Duration, entities int, assetsDir string, gcPause bool) error {
	cfg := benchConfig(assetsDir, entities)
	if err := cfg.Validate(); err != nil {
		return err
	}

	rec := headless.New()
	a, cleanup, err := app.InitializeApp("", cfg, logger, app.Graphics{
		Device:  rec.Device(),
		Queue:   rec.Queue(),
		Surface: rec.Surface(),
		Format:  gpu.TextureFormatBGRA8UnormSrgb,
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
	})
	if err != nil {
		return err
	}
	defer cleanup()
	defer a.Close()

	report := &Report{
		Duration:       duration,
		Entities:       entities,
		GCPauseMetrics: gcPause,
	}

	logger.Info("loading scene", zap.Int("entities", entities))
	if err := a.Frame(); err != nil {
		return err
	}
	rec.Reset()

	runtime.ReadMemStats(&report.MemStatsStart)
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	start := time.Now()
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			frameStart := time.Now()
			if err := a.Frame(); err != nil {
				return err
			}
			report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(frameStart))
			report.Draws += int64(rec.Count(headless.OpDrawIndexed))
			report.TotalFrames++
			rec.Reset()
		}
	}

	report.TotalTime = time.Since(start)
	report.FrameTime.Finalize()
	report.Systems = a.Scheduler().Stats().Systems
	runtime.ReadMemStats(&report.MemStatsEnd)

	return report.Generate(os.Stdout)
}
