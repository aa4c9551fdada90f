package indicators

import (
	"math"

	"github.com/montanaflynn/stats"

	"trade_tracker/internal/models"
)

// MovingMinMax tracks the lowest low and highest high over the last period bars.
type MovingMinMax struct {
	period int
	lows   []float64
	highs  []float64
}

func NewMovingMinMax(period int) *MovingMinMax {
	if period <= 0 {
		period = 1
	}
	return &MovingMinMax{
		period: period,
		lows:   make([]float64, 0, period),
		highs:  make([]float64, 0, period),
	}
}

func (m *MovingMinMax) Update(b models.Bar) {
	m.lows = pushWindow(m.lows, b.Low, m.period)
	m.highs = pushWindow(m.highs, b.High, m.period)
}

func (m *MovingMinMax) Ready() bool { return len(m.highs) >= m.period }

// Value returns (NaN, NaN) while the window is not full.
func (m *MovingMinMax) Value() (low, high float64) {
	if !m.Ready() {
		return math.NaN(), math.NaN()
	}
	ll, err := stats.Min(m.lows)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	hh, err := stats.Max(m.highs)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return ll, hh
}
