package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	old := SetServiceName("tracker-test")
	defer SetServiceName(old)

	Debug("hidden %d", 1)
	Info("hello %s", "world")
	Warn("careful")
	Error("boom: %v", assert.AnError)

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "hello world", entries[0].Message)
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, "tracker-test", entries[2].ContextMap()["service"])
	}
}

func TestHelpersBeforeInitDoNotPanic(t *testing.T) {
	restore := Replace(zap.NewNop())
	defer restore()

	assert.NotPanics(t, func() {
		Info("x")
		Debug("y")
		Sync()
	})
}
