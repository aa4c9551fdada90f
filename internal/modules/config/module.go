package config

import (
	"go.uber.org/fx"

	"trade_tracker/internal/config"
	"trade_tracker/pkg/logger"
)

// Params задаёт путь к конфигу и правки из флагов командной строки.
type Params struct {
	Path      string
	Overrides func(*config.Config) error
}

func NewConfig(p Params) (*config.Config, error) {
	cfg, err := config.Load(p.Path)
	if err != nil {
		return nil, err
	}
	if p.Overrides == nil {
		return cfg, nil
	}
	if err := p.Overrides(cfg); err != nil {
		return nil, err
	}
	// флаги могли сломать то, что прошло проверку в Load
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg *config.Config) error {
	logger.SetServiceName(cfg.Service.Name)
	return logger.Init(cfg.Log.Level)
}

// Module регистрирует *config.Config как fx-провайдер и настраивает логгер.
func Module(p Params) fx.Option {
	return fx.Module("config",
		fx.Supply(p),
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(initLogger),
	)
}
