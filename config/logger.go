package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// InitLogger builds the process logger. Debug keeps zap's development
// console output with caller and stack traces; every other level logs
// console lines with ISO-8601 timestamps and stack traces on errors only.
func InitLogger(logLevelStr string) (*zap.Logger, error) {
	level := ParseLevel(logLevelStr)

	cfg := zap.NewDevelopmentConfig()
	if level != zapcore.DebugLevel {
		cfg.Development = false
		cfg.DisableCaller = true
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.InitialFields = map[string]any{"service": "ddqchat"}

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}

	globalLogger = logger
	return logger, nil
}

// ParseLevel maps a LOG_LEVEL value to a zap level. Unknown values mean info.
func ParseLevel(s string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	if level == zapcore.DPanicLevel || level == zapcore.PanicLevel || level == zapcore.FatalLevel {
		return zapcore.ErrorLevel
	}
	return level
}

// Cleanup flushes the process logger. Sync on a terminal stderr reports
// EINVAL on Linux, so the error is dropped.
func Cleanup() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
