package tracker

import (
	"time"

	"github.com/pkg/errors"

	"trade_tracker/internal/models"
)

var (
	// ErrInvalidConfig marks configuration errors found at construction.
	ErrInvalidConfig = errors.New("invalid tracker config")
	// ErrHalted is returned once a tracker stopped issuing commands after an execution failure.
	ErrHalted = errors.New("tracker halted")
)

// IndicatorFeed answers pull queries for closed bars: lag 1 is the newest closed bar.
type IndicatorFeed interface {
	ATR(lag int) (float64, bool)
	MinMax(lag int) (low, high float64, ok bool)
	Bar(lag int) (models.Bar, bool)
}

// Orders is the fire-and-forget command side of the execution layer.
type Orders interface {
	SetStop(t time.Time, price float64) error
	RequestTrade(t time.Time, target float64, reason string) error
}

// Position is the read side of the ledger.
type Position interface {
	CurrentQuantity() float64
	AveragePrice() float64
	CurrentStop() float64
}

type Book interface {
	Orders
	Position
}

// Tracker is one strategy instance for one instrument. Events must arrive in time order
// and a bar close must precede the quotes of the following bar.
type Tracker interface {
	Name() models.StrategyType
	Initialize()
	OnBar(b models.Bar) error
	OnQuote(q models.Quote) error
	// OnSignal returns the target quantity to execute when the signal is accepted.
	OnSignal(sig models.Signal, q models.Quote) (target float64, ok bool, err error)
	Dump() string
}

// orderGate forwards commands to the book until the first failure, then refuses everything.
type orderGate struct {
	instrument string
	book       Book
	err        error
}

func (g *orderGate) halted() bool { return g.err != nil }

func (g *orderGate) fail(err error) error {
	g.err = errors.Wrap(err, g.instrument)
	return g.err
}

func (g *orderGate) setStop(t time.Time, price float64) error {
	if g.halted() {
		return ErrHalted
	}
	if err := g.book.SetStop(t, price); err != nil {
		return g.fail(err)
	}
	return nil
}

func (g *orderGate) trade(t time.Time, target float64, reason string) error {
	if g.halted() {
		return ErrHalted
	}
	if err := g.book.RequestTrade(t, target, reason); err != nil {
		return g.fail(err)
	}
	return nil
}
