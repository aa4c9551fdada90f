package notify

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trade_tracker/internal/models"
	"trade_tracker/pkg/logger"
)

func TestNewFallsBackToStdout(t *testing.T) {
	n, err := New("", 42)
	require.NoError(t, err)
	assert.IsType(t, &Stdout{}, n)

	n, err = New("token", 0)
	require.NoError(t, err)
	assert.IsType(t, &Stdout{}, n)
}

func TestStdoutLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	NewStdout().Sendf("run %s done", "abc")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "run abc done", logs.All()[0].Message)
}

func TestFormat(t *testing.T) {
	msg := FormatHalt("BINANCE:BTCUSDT", models.StrategyPyramiding, errors.New("risk limit"))
	assert.Contains(t, msg, "BINANCE:BTCUSDT")
	assert.Contains(t, msg, "risk limit")

	msg = FormatSummary("r1", []models.PositionSummary{
		{Instrument: "A:B", Quantity: 1, RealizedPnL: 2.5, Trades: 3},
		{Instrument: "C:D"},
	})
	assert.Contains(t, msg, "r1")
	assert.Contains(t, msg, "- A:B qty=1.0000 pnl=2.5000 trades=3")
	assert.Contains(t, msg, "- C:D")
}
