package tracker

import (
	"github.com/pkg/errors"

	"trade_tracker/internal/indicators"
	"trade_tracker/internal/models"
)

// New builds the tracker selected by the preset together with the indicator feed it reads.
// The caller pushes closed bars into the feed before handing them to the tracker.
func New(instrument string, p Preset, book Book) (Tracker, *indicators.Feed, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, instrument)
	}

	switch p.Strategy {
	case models.StrategyPyramiding:
		feed, err := indicators.NewFeed(p.Pyramiding.ATRPeriod, p.Pyramiding.ATRSmoother, p.Pyramiding.ATRPeriod)
		if err != nil {
			return nil, nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
		tr, err := NewPyramiding(instrument, p.Pyramiding, feed, book)
		return tr, feed, err
	case models.StrategyChandelier:
		feed, err := indicators.NewFeed(p.Chandelier.Period, p.Chandelier.ATRSmoother, p.Chandelier.Period)
		if err != nil {
			return nil, nil, errors.Wrap(ErrInvalidConfig, err.Error())
		}
		tr, err := NewChandelier(instrument, p.Chandelier, feed, book)
		return tr, feed, err
	}
	return nil, nil, errors.Wrapf(ErrInvalidConfig, "unknown strategy %q", p.Strategy)
}
