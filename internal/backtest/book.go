package backtest

import (
	"time"

	"trade_tracker/internal/metrics"
	"trade_tracker/internal/tracker"
)

// countingBook counts commands accepted by the underlying book.
type countingBook struct {
	tracker.Book
	strategy string
	m        *metrics.Metrics
}

func (b *countingBook) SetStop(t time.Time, price float64) error {
	if err := b.Book.SetStop(t, price); err != nil {
		return err
	}
	b.m.Command(b.strategy, metrics.KindStop)
	return nil
}

func (b *countingBook) RequestTrade(t time.Time, target float64, reason string) error {
	if err := b.Book.RequestTrade(t, target, reason); err != nil {
		return err
	}
	b.m.Command(b.strategy, metrics.KindTrade)
	return nil
}
