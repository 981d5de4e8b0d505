// internal/telemetry/logger.go

// Package telemetry builds the process-wide logger, tracer provider and
// Prometheus collectors.
package telemetry

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"libraryql/internal/config"
)

// NewLogger returns a JSON logger in production and a console logger
// otherwise, at the given level. An empty level means info.
func NewLogger(env, level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level != "" {
		var err error
		if lvl, err = zap.ParseAtomicLevel(level); err != nil {
			return nil, errors.Wrapf(err, "parse log level %q", level)
		}
	}

	var cfg zap.Config
	if env == config.Production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.Fields(zap.String("env", env)))
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}
