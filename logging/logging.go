// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var initOnce sync.Once

// New builds a zap logger at the given level ("debug", "info", "warn",
// "error") with "json" or "console" encoding. Every entry carries a run_id
// field unique to this process. The first logger built replaces zap's global
// logger and is the one returned by Provide.
func New(level, encoding string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	switch encoding {
	case "", "json":
		encoding = "json"
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown encoding %q", encoding)
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	logger, err := config.Build(zap.Fields(zap.String("run_id", uuid.NewString())))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	initOnce.Do(func() { zap.ReplaceGlobals(logger) })
	return logger, nil
}

// Provide returns the process logger. Systems built without a logger use
// it. Before New it is zap's no-op global.
func Provide() *zap.Logger {
	return zap.L()
}
