package feed

import (
	"time"

	"trade_tracker/internal/models"
)

// QuoteSource yields the quotes of one bar, in time order. end is the open of the next
// bar, zero for the last one. Bars are requested in order.
type QuoteSource interface {
	ForBar(b models.Bar, end time.Time) []models.Quote
}

// TickSource replays recorded quotes; quotes before the current bar are dropped.
type TickSource struct {
	quotes []models.Quote
	pos    int
}

func NewTickSource(quotes []models.Quote) *TickSource {
	return &TickSource{quotes: quotes}
}

func (s *TickSource) ForBar(b models.Bar, end time.Time) []models.Quote {
	for s.pos < len(s.quotes) && s.quotes[s.pos].Time.Before(b.Time) {
		s.pos++
	}
	from := s.pos
	for s.pos < len(s.quotes) && (end.IsZero() || s.quotes[s.pos].Time.Before(end)) {
		s.pos++
	}
	return s.quotes[from:s.pos]
}

// SyntheticSource derives four quotes per bar from its OHLC: open, the extreme met first
// (low on an up bar, high on a down bar), the other extreme and close.
type SyntheticSource struct {
	Spread float64
}

func (s SyntheticSource) ForBar(b models.Bar, end time.Time) []models.Quote {
	path := [4]float64{b.Open, b.Low, b.High, b.Close}
	if b.Close < b.Open {
		path[1], path[2] = b.High, b.Low
	}

	var step time.Duration
	if !end.IsZero() && end.After(b.Time) {
		step = end.Sub(b.Time) / 4
	}
	half := s.Spread / 2
	out := make([]models.Quote, len(path))
	for i, px := range path {
		out[i] = models.Quote{
			Time: b.Time.Add(time.Duration(i) * step),
			Bid:  px - half,
			Ask:  px + half,
		}
	}
	return out
}
