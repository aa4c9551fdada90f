package ledger

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/models"
)

// ErrRejected is returned for commands the execution layer refuses.
var ErrRejected = errors.New("order rejected")

const epsilon = 1e-9

type Option func(*Ledger)

// WithMaxQuantity caps the absolute position size; 0 disables the cap.
func WithMaxQuantity(q float64) Option {
	return func(l *Ledger) { l.maxQty = math.Abs(q) }
}

// Ledger is the paper position and stop book of one instrument.
// Trades fill at the latest marked quote: ask for buys, bid for sells.
type Ledger struct {
	instrument string
	maxQty     float64

	mu       sync.Mutex
	qty      float64
	cost     float64 // signed: sum(qty*price) of the open position
	realized float64
	stop     float64
	quote    models.Quote
	marked   bool

	trades      int
	stopUpdates int
	stopHits    int
	audit       []models.AuditEntry
}

func New(instrument string, opts ...Option) *Ledger {
	l := &Ledger{
		instrument: instrument,
		stop:       math.NaN(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Instrument() string { return l.instrument }

// Mark records the latest quote used for fills.
func (l *Ledger) Mark(q models.Quote) {
	l.mu.Lock()
	l.quote = q
	l.marked = true
	l.mu.Unlock()
}

func (l *Ledger) CurrentQuantity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.qty
}

// AveragePrice is cost/quantity, NaN when flat.
func (l *Ledger) AveragePrice() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.avgPrice()
}

func (l *Ledger) avgPrice() float64 {
	if l.qty == 0 {
		return math.NaN()
	}
	return l.cost / l.qty
}

// CurrentStop is NaN when no stop is working.
func (l *Ledger) CurrentStop() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop
}

func (l *Ledger) SetStop(t time.Time, price float64) error {
	if !helper.IsFinite(price) {
		return errors.Wrapf(ErrRejected, "%s: non-finite stop %v", l.instrument, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stop = price
	l.stopUpdates++
	l.audit = append(l.audit, models.AuditEntry{
		Time:       t,
		Instrument: l.instrument,
		Kind:       models.AuditStop,
		Target:     l.qty,
		Price:      price,
		Reason:     "stop",
	})
	return nil
}

// RequestTrade moves the position to target at the latest quote.
func (l *Ledger) RequestTrade(t time.Time, target float64, reason string) error {
	if !helper.IsFinite(target) {
		return errors.Wrapf(ErrRejected, "%s: non-finite target %v", l.instrument, target)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.marked {
		return errors.Wrapf(ErrRejected, "%s: no quote to fill at", l.instrument)
	}
	if l.maxQty > 0 && math.Abs(target) > l.maxQty+epsilon {
		return errors.Wrapf(ErrRejected, "%s: target %v exceeds max quantity %v", l.instrument, target, l.maxQty)
	}

	delta := target - l.qty
	if delta == 0 {
		return nil
	}
	price := l.quote.EntryPrice(models.SideOf(delta))
	if !helper.IsFinite(price) || price <= 0 {
		return errors.Wrapf(ErrRejected, "%s: bad fill price %v", l.instrument, price)
	}

	l.fill(delta, price)
	l.trades++
	l.audit = append(l.audit, models.AuditEntry{
		Time:       t,
		Instrument: l.instrument,
		Kind:       models.AuditTrade,
		Delta:      delta,
		Target:     l.qty,
		Price:      price,
		Reason:     reason,
	})
	return nil
}

// CancelStop clears the working stop of a flat book and reports whether one was set.
// An open position keeps its stop.
func (l *Ledger) CancelStop(t time.Time, reason string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.qty != 0 || math.IsNaN(l.stop) {
		return false
	}
	l.audit = append(l.audit, models.AuditEntry{
		Time:       t,
		Instrument: l.instrument,
		Kind:       models.AuditStopCancel,
		Price:      l.stop,
		Reason:     reason,
	})
	l.stop = math.NaN()
	return true
}

// CheckStop flattens the position when q breaches the working stop:
// longs on bid <= stop, shorts on ask >= stop.
func (l *Ledger) CheckStop(q models.Quote) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.quote = q
	l.marked = true

	if l.qty == 0 || math.IsNaN(l.stop) {
		return false
	}

	var price float64
	switch {
	case l.qty > 0 && q.Bid <= l.stop:
		price = q.Bid
	case l.qty < 0 && q.Ask >= l.stop:
		price = q.Ask
	default:
		return false
	}

	delta := -l.qty
	l.fill(delta, price)
	l.stopHits++
	l.audit = append(l.audit, models.AuditEntry{
		Time:       q.Time,
		Instrument: l.instrument,
		Kind:       models.AuditStopHit,
		Delta:      delta,
		Target:     0,
		Price:      price,
		Reason:     "stop",
	})
	return true
}

// fill applies delta at price; caller holds mu.
func (l *Ledger) fill(delta, price float64) {
	if l.qty == 0 || helper.Sign(delta) == helper.Sign(l.qty) {
		l.cost += delta * price
		l.qty += delta
		return
	}

	avg := l.avgPrice()
	closing := math.Min(math.Abs(delta), math.Abs(l.qty))
	dir := helper.Sign(l.qty)

	l.realized += (price - avg) * closing * dir
	l.cost -= avg * closing * dir
	l.qty -= closing * dir

	if math.Abs(l.qty) <= epsilon {
		l.qty = 0
		l.cost = 0
		l.stop = math.NaN()
	}

	// reversal: open the remainder on the other side
	if rest := delta + closing*dir; math.Abs(rest) > epsilon {
		l.qty = rest
		l.cost = rest * price
	}
}

// Audit returns a copy of the accepted commands.
func (l *Ledger) Audit() []models.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.AuditEntry, len(l.audit))
	copy(out, l.audit)
	return out
}

func (l *Ledger) Summary() models.PositionSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.PositionSummary{
		Instrument:   l.instrument,
		Quantity:     l.qty,
		AveragePrice: l.avgPrice(),
		Stop:         l.stop,
		RealizedPnL:  l.realized,
		Trades:       l.trades,
		StopUpdates:  l.stopUpdates,
		StopHits:     l.stopHits,
	}
}
