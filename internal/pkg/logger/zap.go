package logger

import (
	"fmt"
	"log/slog"

	"storage_dapp/internal/infrastructure/configloader"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the root zap logger for the given logging config.
func NewZapLogger(cfg configloader.LoggingConfig) (*zap.Logger, error) {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = slog.LevelInfo
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	zl, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return zl, nil
}

// InstallZap routes slog (and so every port.Logger from NewSlogAdapter) into zl.
func InstallZap(zl *zap.Logger, levelStr string) {
	level, _ := ParseLevel(levelStr)
	handler := slogzap.Option{
		Level:  level,
		Logger: zl,
	}.NewZapHandler()
	SetGlobal(slog.New(handler))
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
