package indicators

import (
	"trade_tracker/internal/models"
)

// ATRSeries runs the incremental ATR over bars; values are NaN while warming up.
func ATRSeries(bars []models.Bar, period int, smoother string) ([]float64, error) {
	atr, err := NewATR(period, smoother)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		atr.Update(b)
		out[i] = atr.Value()
	}
	return out, nil
}

// MinMaxSeries returns rolling lowest lows and highest highs, NaN while warming up.
func MinMaxSeries(bars []models.Bar, period int) (lows, highs []float64) {
	mm := NewMovingMinMax(period)
	lows = make([]float64, len(bars))
	highs = make([]float64, len(bars))
	for i, b := range bars {
		mm.Update(b)
		lows[i], highs[i] = mm.Value()
	}
	return lows, highs
}
