package indicators

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"trade_tracker/internal/helper"
)

var ErrUnknownSmoother = errors.New("unknown smoother")

// Smoother averages a raw series over a fixed window.
type Smoother interface {
	Update(x float64)
	Value() float64
	Ready() bool
}

// NewSmoother returns sma, ema or wma over period samples.
func NewSmoother(kind string, period int) (Smoother, error) {
	if period <= 0 {
		return nil, errors.Errorf("smoother period must be positive, got %d", period)
	}
	switch helper.NormSmoother(kind) {
	case "sma":
		return &sma{period: period, window: make([]float64, 0, period)}, nil
	case "ema":
		return newEMA(period), nil
	case "wma":
		return &wma{period: period, window: make([]float64, 0, period)}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownSmoother, "%q", kind)
	}
}

type sma struct {
	period int
	window []float64
}

func (s *sma) Update(x float64) {
	s.window = pushWindow(s.window, x, s.period)
}

func (s *sma) Ready() bool { return len(s.window) >= s.period }

func (s *sma) Value() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	m, err := stats.Mean(s.window)
	if err != nil {
		return math.NaN()
	}
	return m
}

type emaState struct {
	period int
	alpha  float64
	value  float64
	warmup int
}

func newEMA(period int) *emaState {
	return &emaState{
		period: period,
		alpha:  2.0 / (float64(period) + 1),
	}
}

func (e *emaState) Update(x float64) {
	if e.warmup == 0 {
		e.value = x
		e.warmup = 1
		return
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	if e.warmup < e.period {
		e.warmup++
	}
}

func (e *emaState) Ready() bool { return e.warmup >= e.period }

func (e *emaState) Value() float64 {
	if !e.Ready() {
		return math.NaN()
	}
	return e.value
}

// wma weights samples 1..period, newest heaviest.
type wma struct {
	period int
	window []float64
}

func (w *wma) Update(x float64) {
	w.window = pushWindow(w.window, x, w.period)
}

func (w *wma) Ready() bool { return len(w.window) >= w.period }

func (w *wma) Value() float64 {
	if !w.Ready() {
		return math.NaN()
	}
	var num, den float64
	for i, x := range w.window {
		k := float64(i + 1)
		num += k * x
		den += k
	}
	return num / den
}

func pushWindow(window []float64, x float64, period int) []float64 {
	window = append(window, x)
	if len(window) > period {
		window = window[1:]
	}
	return window
}
