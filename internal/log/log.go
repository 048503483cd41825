// Package log routes slog through zap.
package log

import (
	"fmt"
	"log/slog"

	"github.com/w-h-a/pdfrag/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Setup builds a zap logger for the given level and format ("text" or "json")
// and installs it as the slog default. Callers should Sync the returned logger
// before exiting.
func Setup(level string, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", errs.ErrConfig, err)
	}

	var cfg zap.Config

	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "text", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", errs.ErrConfig, format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(NewHandler(logger.Core())))

	return logger, nil
}

func NewHandler(core zapcore.Core) slog.Handler {
	return zapslog.NewHandler(core, zapslog.WithName("pdfrag"))
}
