package backtest

import (
	"github.com/pkg/errors"

	"trade_tracker/internal/config"
	"trade_tracker/internal/feed"
	"trade_tracker/internal/metrics"
	"trade_tracker/internal/notify"
)

// LoadInstruments reads the data files of every configured instrument. Without a quotes
// file the quotes are synthesised from bars with the configured spread.
func LoadInstruments(cfg *config.Config) ([]Instrument, error) {
	out := make([]Instrument, 0, len(cfg.Instruments))
	for _, ic := range cfg.Instruments {
		bars, err := feed.LoadBars(cfg.DataPath(ic.Bars))
		if err != nil {
			return nil, errors.Wrap(err, ic.Name)
		}

		inst := Instrument{
			Name:        ic.Name,
			Preset:      ic.Preset,
			Bars:        bars,
			Quotes:      feed.SyntheticSource{Spread: cfg.Backtest.Spread},
			MaxQuantity: ic.MaxQuantity,
		}
		if ic.Quotes != "" {
			quotes, err := feed.LoadQuotes(cfg.DataPath(ic.Quotes))
			if err != nil {
				return nil, errors.Wrap(err, ic.Name)
			}
			inst.Quotes = feed.NewTickSource(quotes)
		}
		if ic.Signals != "" {
			if inst.Signals, err = feed.LoadSignals(cfg.DataPath(ic.Signals), ic.Name); err != nil {
				return nil, errors.Wrap(err, ic.Name)
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

// NewFromConfig builds an engine with the configured workers and horizon; opts are applied last.
func NewFromConfig(cfg *config.Config, m *metrics.Metrics, n notify.Notifier, opts ...Option) (*Engine, error) {
	horizon, err := cfg.Backtest.HorizonTime()
	if err != nil {
		return nil, err
	}
	return New(append([]Option{
		WithWorkers(cfg.Backtest.Workers),
		WithHorizon(horizon),
		WithMetrics(m),
		WithNotifier(n),
	}, opts...)...), nil
}
