package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// SetupLogging configures the global slog logger based on config. The
// returned function flushes buffered output and should be called on exit.
func SetupLogging(cfg LoggingConfig) func() {
	level := parseLevel(cfg.Level)

	if strings.ToLower(cfg.Backend) == "zap" {
		logger, err := newZapLogger(cfg, level)
		if err == nil {
			slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core())))
			return func() { _ = logger.Sync() }
		}
		slog.Warn("zap logger unavailable, falling back to slog", "error", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(output(cfg.Output), opts)
	} else {
		handler = slog.NewJSONHandler(output(cfg.Output), opts)
	}

	slog.SetDefault(slog.New(handler))
	return func() {}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func output(name string) io.Writer {
	if strings.ToLower(name) == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

func newZapLogger(cfg LoggingConfig, level slog.Level) (*zap.Logger, error) {
	var zc zap.Config
	if strings.ToLower(cfg.Format) == "text" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel(level))

	out := "stdout"
	if strings.ToLower(cfg.Output) == "stderr" {
		out = "stderr"
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
