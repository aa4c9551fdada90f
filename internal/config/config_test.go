package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_tracker/internal/models"
	"trade_tracker/internal/tracker"
)

const sample = `
service:
  name: tracker-test
db_dsn: postgres://local
backtest:
  data_dir: /data
  spread: 0.1
  horizon: "2024-02-01T00:00:00Z"
  audit:
    format: parquet
instruments:
  - name: "BINANCE:BTCUSDT"
    bars: btc.csv
    strategy: pyramiding
    pyramiding:
      size: 2
      max_positions: 5
  - name: "BYBIT:ETHUSDT"
    bars: /abs/eth.csv
    strategy: chandelier
    chandelier:
      position_size: 3
      stop_risk_mx: -2.5
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "tracker-test", cfg.Service.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Backtest.Workers)
	assert.Equal(t, AuditParquet, cfg.Backtest.Audit.Format)
	assert.Equal(t, "out", cfg.Backtest.Audit.Dir)

	h, err := cfg.Backtest.HorizonTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), h)

	require.Len(t, cfg.Instruments, 2)
	btc := cfg.Instruments[0]
	assert.Equal(t, models.StrategyPyramiding, btc.Preset.Strategy)
	assert.Equal(t, 2.0, btc.Preset.Pyramiding.Size)
	assert.Equal(t, 5, btc.Preset.Pyramiding.MaxPositions)
	assert.Equal(t, 3, btc.Preset.Pyramiding.StartStep)
	assert.Equal(t, filepath.Join("/data", "btc.csv"), cfg.DataPath(btc.Bars))

	eth := cfg.Instruments[1]
	assert.Equal(t, models.StrategyChandelier, eth.Preset.Strategy)
	assert.Equal(t, -2.5, eth.Preset.Chandelier.StopRiskMx)
	assert.Equal(t, tracker.DefaultChandelierConfig().Period, eth.Preset.Chandelier.Period)
	assert.Equal(t, "/abs/eth.csv", cfg.DataPath(eth.Bars))
	assert.Equal(t, "", cfg.DataPath(eth.Quotes))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(tokenTelegramENV, "tg-token")
	t.Setenv(chatTelegramENV, "12345")
	t.Setenv(databaseDSN, "postgres://env")
	t.Setenv(logLevelENV, "debug")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, int64(12345), cfg.Telegram.ChatID)
	assert.Equal(t, "postgres://env", cfg.DB)
	assert.Equal(t, "debug", cfg.Log.Level)

	raw, err := cfg.Dump()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tg-token")
	assert.NotContains(t, string(raw), "postgres://env")
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
}

func TestLoadFromEnvPath(t *testing.T) {
	t.Setenv(configFilePathENV, writeConfig(t, "service:\n  name: from-env\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Service.Name)
	assert.Empty(t, cfg.Instruments)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cases := map[string]string{
		"bad yaml":      "service: [",
		"audit format":  "backtest:\n  audit:\n    format: xml\n",
		"postgres dsn":  "backtest:\n  audit:\n    format: postgres\n",
		"horizon":       "backtest:\n  horizon: tomorrow\n",
		"spread":        "backtest:\n  spread: -1\n",
		"name":          "instruments:\n  - name: BTCUSDT\n    bars: a.csv\n",
		"bars":          "instruments:\n  - name: A:B\n",
		"duplicate":     "instruments:\n  - {name: A:B, bars: a.csv, pyramiding: {size: 1}}\n  - {name: A:B, bars: a.csv, pyramiding: {size: 1}}\n",
		"start step":    "instruments:\n  - name: A:B\n    bars: a.csv\n    pyramiding:\n      size: 1\n      pyramiding_start_step: 1\n",
		"zero size":     "instruments:\n  - name: A:B\n    bars: a.csv\n",
		"unknown strat": "instruments:\n  - name: A:B\n    bars: a.csv\n    strategy: grid\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestStartStepIsConfigError(t *testing.T) {
	_, err := Load(writeConfig(t, "instruments:\n  - name: A:B\n    bars: a.csv\n    pyramiding:\n      size: 1\n      pyramiding_start_step: 1\n"))
	assert.ErrorIs(t, err, tracker.ErrInvalidConfig)
}
