package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InfoLogger serves Debug..Error, FatalLogger serves Fatal. Both are no-op until Init.
var InfoLogger, FatalLogger = zap.NewNop(), zap.NewNop()

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init builds production loggers at the given level (debug|info|warn|error).
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	InfoLogger = l
	FatalLogger = l
	return nil
}

// Replace swaps both loggers, tests use it with zaptest/observer.
func Replace(l *zap.Logger) func() {
	prevInfo, prevFatal := InfoLogger, FatalLogger
	InfoLogger, FatalLogger = l, l
	return func() {
		InfoLogger, FatalLogger = prevInfo, prevFatal
	}
}

func Debug(format string, args ...interface{}) {
	if ce := InfoLogger.Check(zap.DebugLevel, ""); ce == nil {
		return
	}
	InfoLogger.With(
		zap.String("service", serviceName),
	).Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	InfoLogger.With(
		zap.String("service", serviceName),
	).Info(msg)
}

func Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	InfoLogger.With(
		zap.String("service", serviceName),
	).Warn(msg)
}

func Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	InfoLogger.With(
		zap.String("service", serviceName),
	).Error(msg)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	FatalLogger.With(
		zap.String("service", serviceName),
	).Fatal(msg)
}

// Sync flushes buffered records.
func Sync() {
	_ = InfoLogger.Sync()
	if FatalLogger != InfoLogger {
		_ = FatalLogger.Sync()
	}
}
