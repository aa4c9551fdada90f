package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/tracker"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	logLevelENV       = "LOG_LEVEL"

	DefaultPath = "configs/values_local.yaml"
)

// форматы аудита
const (
	AuditNone     = "none"
	AuditJSON     = "json"
	AuditParquet  = "parquet"
	AuditPostgres = "postgres"
)

type Config struct {
	Service struct {
		Name      string `yaml:"name"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	DB      string `yaml:"db_dsn"`
	Tracing struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"tracing"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Backtest    Backtest     `yaml:"backtest"`
	Instruments []Instrument `yaml:"instruments"`
}

type Backtest struct {
	DataDir string  `yaml:"data_dir"`
	Workers int     `yaml:"workers"`
	Spread  float64 `yaml:"spread"`
	// Horizon: RFC3339, события позже него не проигрываются
	Horizon string `yaml:"horizon"`
	Audit   struct {
		Format string `yaml:"format"`
		Dir    string `yaml:"dir"`
	} `yaml:"audit"`
	Notes string `yaml:"notes"`
}

// HorizonTime returns the zero time when no horizon is configured.
func (b Backtest) HorizonTime() (time.Time, error) {
	if b.Horizon == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, b.Horizon)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "backtest.horizon")
	}
	return t, nil
}

// Instrument: один трекер: данные + пресет стратегии.
type Instrument struct {
	Name        string  `yaml:"name"`
	Bars        string  `yaml:"bars"`
	Quotes      string  `yaml:"quotes"`
	Signals     string  `yaml:"signals"`
	MaxQuantity float64 `yaml:"max_quantity"`

	Preset tracker.Preset `yaml:",inline"`
}

// UnmarshalYAML fills omitted strategy parameters with defaults.
func (i *Instrument) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*i = Instrument{Preset: tracker.DefaultPreset()}
	type plain Instrument
	return unmarshal((*plain)(i))
}

func Default() Config {
	var c Config
	c.Service.Name = "trade-tracker"
	c.Log.Level = "info"
	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831
	c.Backtest.DataDir = "data"
	c.Backtest.Workers = 4
	c.Backtest.Audit.Format = AuditNone
	c.Backtest.Audit.Dir = "out"
	return c
}

// Load reads .env, decodes the YAML file and applies environment overrides.
// An empty path falls back to CONFIG_FILE and then to DefaultPath.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getenvDefault(configFilePathENV, DefaultPath)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer func() {
		_ = file.Close()
	}()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, errors.Wrap(err, "failed to decode config file")
	}

	config.Telegram.Token = getenvDefault(tokenTelegramENV, config.Telegram.Token)
	config.Telegram.ChatID = int64FromEnv(chatTelegramENV, config.Telegram.ChatID)
	config.DB = getenvDefault(databaseDSN, config.DB)
	config.Log.Level = getenvDefault(logLevelENV, config.Log.Level)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Backtest.Audit.Format {
	case AuditNone, AuditJSON, AuditParquet:
	case AuditPostgres:
		if c.DB == "" {
			return errors.New("backtest.audit.format postgres requires db_dsn")
		}
	default:
		return errors.Errorf("unknown backtest.audit.format %q", c.Backtest.Audit.Format)
	}
	if c.Backtest.Spread < 0 || !helper.IsFinite(c.Backtest.Spread) {
		return errors.Errorf("backtest.spread must be a non-negative number, got %v", c.Backtest.Spread)
	}
	if _, err := c.Backtest.HorizonTime(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Instruments))
	for _, inst := range c.Instruments {
		if _, _, err := helper.SplitInstrument(inst.Name); err != nil {
			return err
		}
		if seen[inst.Name] {
			return errors.Errorf("duplicate instrument %s", inst.Name)
		}
		seen[inst.Name] = true
		if inst.Bars == "" {
			return errors.Errorf("%s: bars file is required", inst.Name)
		}
		if err := inst.Preset.Validate(); err != nil {
			return errors.Wrap(err, inst.Name)
		}
	}
	return nil
}

// DataPath resolves a data file relative to backtest.data_dir.
func (c *Config) DataPath(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Backtest.DataDir, file)
}

// Masked returns a copy with the Telegram token and the DSN hidden.
func (c Config) Masked() Config {
	if c.Telegram.Token != "" {
		c.Telegram.Token = "***"
	}
	if c.DB != "" {
		c.DB = "***"
	}
	return c
}

// Dump renders the effective configuration with secrets masked.
func (c Config) Dump() ([]byte, error) {
	return yaml.Marshal(c.Masked())
}
