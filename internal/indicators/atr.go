package indicators

import (
	"math"

	"trade_tracker/internal/models"
)

// ATR is the smoothed average true range.
type ATR struct {
	smoother  Smoother
	prevClose float64
	hasPrev   bool
}

func NewATR(period int, smoother string) (*ATR, error) {
	s, err := NewSmoother(smoother, period)
	if err != nil {
		return nil, err
	}
	return &ATR{smoother: s}, nil
}

// TrueRange of b given the previous close; the first bar uses high-low.
func TrueRange(b models.Bar, prevClose float64, hasPrev bool) float64 {
	tr := b.High - b.Low
	if !hasPrev {
		return tr
	}
	return math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}

func (a *ATR) Update(b models.Bar) {
	a.smoother.Update(TrueRange(b, a.prevClose, a.hasPrev))
	a.prevClose = b.Close
	a.hasPrev = true
}

// Value returns NaN while warming up.
func (a *ATR) Value() float64 { return a.smoother.Value() }

func (a *ATR) Ready() bool { return a.smoother.Ready() }
