package tracker

import (
	"fmt"
	"math"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/models"
	"trade_tracker/pkg/logger"
)

// Pyramiding opens a base size on a signal and adds decaying increments every time price
// advances next_mx ATRs, tightening the stop around the average price after each add.
type Pyramiding struct {
	instrument string
	cfg        PyramidingConfig
	precision  int

	feed IndicatorFeed
	book Book
	gate *orderGate

	nEntry    int
	nextLevel float64
}

func NewPyramiding(instrument string, cfg PyramidingConfig, feed IndicatorFeed, book Book) (*Pyramiding, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pyramiding{
		instrument: instrument,
		cfg:        cfg,
		precision:  helper.Precision(cfg.RoundSize),
		feed:       feed,
		book:       book,
		gate:       &orderGate{instrument: instrument, book: book},
	}
	p.Initialize()
	return p, nil
}

func (p *Pyramiding) Name() models.StrategyType { return models.StrategyPyramiding }

func (p *Pyramiding) Initialize() {
	p.nEntry = 0
	p.nextLevel = math.NaN()
}

// StepSize is the increment added at entry step n.
func (p *Pyramiding) StepSize(n int) float64 {
	k := n - p.cfg.StartStep + 2
	return helper.Round(p.cfg.Size*math.Pow(p.cfg.Factor, float64(k)), p.precision)
}

func (p *Pyramiding) Entries() int { return p.nEntry }

func (p *Pyramiding) NextLevel() float64 { return p.nextLevel }

func (p *Pyramiding) OnBar(models.Bar) error {
	if p.gate.halted() {
		return ErrHalted
	}
	return nil
}

func (p *Pyramiding) OnQuote(q models.Quote) error {
	if p.gate.halted() {
		return ErrHalted
	}
	tr, ok := p.feed.ATR(1)
	qty := p.book.CurrentQuantity()
	if qty == 0 || !ok {
		return nil
	}

	d := helper.Sign(qty)
	px := q.Ask
	if d < 0 {
		px = q.Bid
	}
	// NaN next level never compares as touched
	if !((px-p.nextLevel)*d >= 0) {
		return nil
	}

	mesg := fmt.Sprintf("[%s] %s %.3f touched %.3f ", q.Time.Format("2006-01-02 15:04:05"), p.instrument, px, p.nextLevel)
	p.nextLevel = math.NaN()

	if p.nEntry+1 > p.cfg.MaxPositions {
		if p.cfg.FlatOnMaxStep {
			logger.Debug("%sclosing position: max number of entries (%d) reached", mesg, p.cfg.MaxPositions)
			return p.gate.trade(q.Time, 0, "Take profit")
		}
		logger.Debug("%sskip increasing step: max number of entries (%d)", mesg, p.cfg.MaxPositions)
		return nil
	}

	inc := p.StepSize(p.nEntry + 1)
	if !(inc > 0) {
		if p.cfg.FlatOnMaxStep {
			logger.Debug("%sclosing position: increment for step %d rounds to zero", mesg, p.nEntry+1)
			return p.gate.trade(q.Time, 0, "Take profit")
		}
		logger.Debug("%sincrement for step %d rounds to zero: skip this step", mesg, p.nEntry+1)
		return nil
	}

	p.nEntry++
	p.nextLevel = px + d*p.cfg.NextMx*tr

	var stop float64
	if p.nEntry >= p.cfg.StartStep {
		mesg += fmt.Sprintf("step (%d) -> %+.0f at %.3f next: %.3f", p.nEntry, d*inc, px, p.nextLevel)
		if err := p.gate.trade(q.Time, qty+d*inc, mesg); err != nil {
			return err
		}
		stop = p.book.AveragePrice() - d*p.cfg.StopMx*tr
	} else {
		mesg += fmt.Sprintf("step (%d) at %.3f move stop to breakeven next: %.3f", p.nEntry, px, p.nextLevel)
		stop = p.book.AveragePrice()
	}
	logger.Debug("%s, stop: %.3f, avg_price: %.3f", mesg, stop, p.book.AveragePrice())
	return p.gate.setStop(q.Time, stop)
}

func (p *Pyramiding) OnSignal(sig models.Signal, q models.Quote) (float64, bool, error) {
	if p.gate.halted() {
		return 0, false, ErrHalted
	}
	tr, ok := p.feed.ATR(1)
	if p.book.CurrentQuantity() != 0 || !ok {
		return 0, false, nil
	}

	var pos, px float64
	switch {
	case sig.Direction > 0:
		pos, px = p.cfg.Size, q.Ask
	case sig.Direction < 0:
		pos, px = -p.cfg.Size, q.Bid
	default:
		return 0, false, nil
	}
	d := helper.Sign(pos)
	stop := px - d*p.cfg.StopMx*tr
	if err := p.gate.setStop(sig.Time, stop); err != nil {
		return 0, false, err
	}
	p.nEntry = 1
	p.nextLevel = px + d*p.cfg.NextMx*tr
	logger.Debug("[%s] %s step (%d) -> %+.0f at %.3f stop: %.3f, next: %.3f",
		q.Time.Format("2006-01-02 15:04:05"), p.instrument, p.nEntry, pos, px, stop, p.nextLevel)
	return pos, true, nil
}

func (p *Pyramiding) Dump() string {
	return fmt.Sprintf("%s pyramiding: entries=%d/%d next=%.4f halted=%v",
		p.instrument, p.nEntry, p.cfg.MaxPositions, p.nextLevel, p.gate.halted())
}
