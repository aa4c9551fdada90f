package tracker

import (
	"github.com/pkg/errors"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/indicators"
	"trade_tracker/internal/models"
)

type PyramidingConfig struct {
	Size          float64 `yaml:"size" json:"size"`
	StopMx        float64 `yaml:"stop_mx" json:"stop_mx"`
	NextMx        float64 `yaml:"next_mx" json:"next_mx"`
	Factor        float64 `yaml:"pyramiding_factor" json:"pyramiding_factor"`
	MaxPositions  int     `yaml:"max_positions" json:"max_positions"`
	FlatOnMaxStep bool    `yaml:"flat_on_max_step" json:"flat_on_max_step"`
	StartStep     int     `yaml:"pyramiding_start_step" json:"pyramiding_start_step"`
	ATRPeriod     int     `yaml:"atr_period" json:"atr_period"`
	ATRSmoother   string  `yaml:"atr_smoother" json:"atr_smoother"`
	RoundSize     float64 `yaml:"round_size" json:"round_size"`
}

func DefaultPyramidingConfig() PyramidingConfig {
	return PyramidingConfig{
		StopMx:       3,
		NextMx:       3,
		Factor:       0.5,
		MaxPositions: 3,
		StartStep:    3,
		ATRPeriod:    22,
		ATRSmoother:  "sma",
		RoundSize:    1,
	}
}

// UnmarshalYAML fills omitted keys with defaults.
func (c *PyramidingConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultPyramidingConfig()
	type plain PyramidingConfig
	return unmarshal((*plain)(c))
}

func (c PyramidingConfig) Validate() error {
	switch {
	case !helper.IsFinite(c.Size, c.StopMx, c.NextMx, c.Factor, c.RoundSize):
		return errors.Wrap(ErrInvalidConfig, "pyramiding: non-finite parameter")
	case c.Size <= 0:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: size must be positive, got %v", c.Size)
	case c.StopMx <= 0 || c.NextMx <= 0:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: stop_mx and next_mx must be positive, got %v/%v", c.StopMx, c.NextMx)
	case c.Factor <= 0:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: pyramiding_factor must be positive, got %v", c.Factor)
	case c.MaxPositions < 1:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: max_positions must be at least 1, got %d", c.MaxPositions)
	case c.StartStep < 2:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: pyramiding_start_step must be at least 2, got %d", c.StartStep)
	case c.ATRPeriod <= 0:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: atr_period must be positive, got %d", c.ATRPeriod)
	case c.RoundSize < 0:
		return errors.Wrapf(ErrInvalidConfig, "pyramiding: round_size must not be negative, got %v", c.RoundSize)
	}
	return validSmoother(c.ATRSmoother)
}

type ChandelierConfig struct {
	Size        float64 `yaml:"position_size" json:"position_size"`
	Period      int     `yaml:"period" json:"period"`
	StopRiskMx  float64 `yaml:"stop_risk_mx" json:"stop_risk_mx"`
	ATRSmoother string  `yaml:"atr_smoother" json:"atr_smoother"`
}

func DefaultChandelierConfig() ChandelierConfig {
	return ChandelierConfig{
		Period:      22,
		StopRiskMx:  3,
		ATRSmoother: "sma",
	}
}

// UnmarshalYAML fills omitted keys with defaults.
func (c *ChandelierConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultChandelierConfig()
	type plain ChandelierConfig
	return unmarshal((*plain)(c))
}

// Validate accepts a negative stop_risk_mx; the tracker uses its absolute value.
func (c ChandelierConfig) Validate() error {
	switch {
	case !helper.IsFinite(c.Size, c.StopRiskMx):
		return errors.Wrap(ErrInvalidConfig, "chandelier: non-finite parameter")
	case c.Size <= 0:
		return errors.Wrapf(ErrInvalidConfig, "chandelier: position_size must be positive, got %v", c.Size)
	case c.Period <= 0:
		return errors.Wrapf(ErrInvalidConfig, "chandelier: period must be positive, got %d", c.Period)
	}
	return validSmoother(c.ATRSmoother)
}

func validSmoother(kind string) error {
	if _, err := indicators.NewSmoother(kind, 1); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// Preset selects and parametrises one tracker.
type Preset struct {
	Strategy   models.StrategyType `yaml:"strategy" json:"strategy"`
	Pyramiding PyramidingConfig    `yaml:"pyramiding" json:"pyramiding"`
	Chandelier ChandelierConfig    `yaml:"chandelier" json:"chandelier"`
}

func DefaultPreset() Preset {
	return Preset{
		Strategy:   models.StrategyPyramiding,
		Pyramiding: DefaultPyramidingConfig(),
		Chandelier: DefaultChandelierConfig(),
	}
}

// UnmarshalYAML fills omitted keys with defaults.
func (p *Preset) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*p = DefaultPreset()
	type plain Preset
	return unmarshal((*plain)(p))
}

func (p Preset) Validate() error {
	switch p.Strategy {
	case models.StrategyPyramiding:
		return p.Pyramiding.Validate()
	case models.StrategyChandelier:
		return p.Chandelier.Validate()
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown strategy %q", p.Strategy)
	}
}
