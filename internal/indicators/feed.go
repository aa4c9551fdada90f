package indicators

import (
	"math"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/models"
)

const historyDepth = 2

type closedBar struct {
	bar  models.Bar
	atr  float64
	low  float64
	high float64
}

// Feed keeps ATR and rolling extremes for closed bars, addressable by lag:
// lag 1 is the newest closed bar, lag 2 the one before it.
type Feed struct {
	atr  *ATR
	mm   *MovingMinMax
	hist []closedBar
}

func NewFeed(atrPeriod int, smoother string, minMaxPeriod int) (*Feed, error) {
	atr, err := NewATR(atrPeriod, smoother)
	if err != nil {
		return nil, err
	}
	return &Feed{
		atr:  atr,
		mm:   NewMovingMinMax(minMaxPeriod),
		hist: make([]closedBar, 0, historyDepth+1),
	}, nil
}

// Update appends a closed bar.
func (f *Feed) Update(b models.Bar) {
	f.atr.Update(b)
	f.mm.Update(b)
	low, high := f.mm.Value()

	f.hist = append(f.hist, closedBar{bar: b, atr: f.atr.Value(), low: low, high: high})
	if len(f.hist) > historyDepth {
		f.hist = f.hist[1:]
	}
}

func (f *Feed) at(lag int) (closedBar, bool) {
	if lag < 1 || lag > len(f.hist) {
		return closedBar{}, false
	}
	return f.hist[len(f.hist)-lag], true
}

// ATR at lag; not ready while warming up or non-finite.
func (f *Feed) ATR(lag int) (float64, bool) {
	c, ok := f.at(lag)
	if !ok || !helper.IsFinite(c.atr) {
		return math.NaN(), false
	}
	return c.atr, true
}

// MinMax at lag; not ready while warming up or non-finite.
func (f *Feed) MinMax(lag int) (low, high float64, ok bool) {
	c, ok := f.at(lag)
	if !ok || !helper.IsFinite(c.low, c.high) {
		return math.NaN(), math.NaN(), false
	}
	return c.low, c.high, true
}

// Bar returns the closed bar at lag.
func (f *Feed) Bar(lag int) (models.Bar, bool) {
	c, ok := f.at(lag)
	return c.bar, ok
}
