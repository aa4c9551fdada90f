package tracker

import (
	"fmt"
	"math"

	"trade_tracker/internal/models"
	"trade_tracker/pkg/logger"
)

// Chandelier trails a stop along the ATR channel and only accepts entries in the direction
// the channel has confirmed.
type Chandelier struct {
	instrument string
	cfg        ChandelierConfig
	mult       float64

	feed IndicatorFeed
	book Book
	gate *orderGate

	side     models.Side
	level    float64
	levelSet bool
	newBar   bool
	updated  models.Bar
}

func NewChandelier(instrument string, cfg ChandelierConfig, feed IndicatorFeed, book Book) (*Chandelier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Chandelier{
		instrument: instrument,
		cfg:        cfg,
		mult:       math.Abs(cfg.StopRiskMx),
		feed:       feed,
		book:       book,
		gate:       &orderGate{instrument: instrument, book: book},
	}
	c.Initialize()
	return c, nil
}

func (c *Chandelier) Name() models.StrategyType { return models.StrategyChandelier }

func (c *Chandelier) Initialize() {
	c.side = models.SideNone
	c.level = math.NaN()
	c.levelSet = false
	c.newBar = false
}

// OnBar raises the new-bar edge and evaluates it at once: the feed already holds b, and a bar
// period without quotes must not swallow the evaluation.
func (c *Chandelier) OnBar(b models.Bar) error {
	if c.gate.halted() {
		return ErrHalted
	}
	c.newBar = true
	c.updated = b
	c.updateStopLevel()
	return nil
}

func (c *Chandelier) stops(lag int) (models.ChannelLevels, bool) {
	atr, ok := c.feed.ATR(lag)
	if !ok {
		return models.ChannelLevels{}, false
	}
	low, high, ok := c.feed.MinMax(lag)
	if !ok {
		return models.ChannelLevels{}, false
	}
	return models.NewChannelLevels(low, high, atr, c.mult), true
}

// updateStopLevel runs once per bar: a cross of the previous bar's close through the
// opposite stop flips side and resets the level, otherwise the level only ratchets.
func (c *Chandelier) updateStopLevel() {
	if !c.newBar {
		return
	}
	c.newBar = false

	s2, ok2 := c.stops(2)
	s1, ok1 := c.stops(1)
	b2, okb2 := c.feed.Bar(2)
	b1, okb1 := c.feed.Bar(1)
	if !ok1 || !ok2 || !okb1 || !okb2 {
		return
	}

	if b2.Close > s2.LongStop && b1.Close < s1.LongStop {
		c.side, c.level, c.levelSet = models.SideShort, s1.ShortStop, true
	}
	if b2.Close < s2.ShortStop && b1.Close > s1.ShortStop {
		c.side, c.level, c.levelSet = models.SideLong, s1.LongStop, true
	}

	switch c.side {
	case models.SideLong:
		c.level = math.Max(c.level, s1.LongStop)
	case models.SideShort:
		c.level = math.Min(c.level, s1.ShortStop)
	}
	logger.Debug("[%s] %s side=%s level=%.4f long_stop=%.4f short_stop=%.4f",
		b1.Time.Format("2006-01-02 15:04:05"), c.instrument, c.side, c.level, s1.LongStop, s1.ShortStop)
}

func (c *Chandelier) OnQuote(q models.Quote) error {
	if c.gate.halted() {
		return ErrHalted
	}
	// no-op unless an edge is still pending
	c.updateStopLevel()
	if c.side == models.SideNone || !c.levelSet {
		return nil
	}

	qty := c.book.CurrentQuantity()
	stop := c.book.CurrentStop()
	switch {
	case qty > 0 && c.level > stop:
		logger.Debug("[%s] %s long stop %.4f -> %.4f", q.Time.Format("2006-01-02 15:04:05"), c.instrument, stop, c.level)
		return c.gate.setStop(q.Time, c.level)
	case qty < 0 && c.level < stop:
		logger.Debug("[%s] %s short stop %.4f -> %.4f", q.Time.Format("2006-01-02 15:04:05"), c.instrument, stop, c.level)
		return c.gate.setStop(q.Time, c.level)
	}
	return nil
}

// OnSignal rejects entries against the confirmed side; a rejection is not an error.
func (c *Chandelier) OnSignal(sig models.Signal, q models.Quote) (float64, bool, error) {
	if c.gate.halted() {
		return 0, false, ErrHalted
	}
	if c.book.CurrentQuantity() != 0 {
		return 0, false, nil
	}
	if c.side == models.SideNone || !c.levelSet {
		logger.Debug("[%s] %s skip %s signal: channel is not ready", sig.Time.Format("2006-01-02 15:04:05"), c.instrument, sig.Direction)
		return 0, false, nil
	}

	accepted := false
	switch {
	case sig.Direction > 0:
		accepted = c.side == models.SideLong && q.Ask > c.level
	case sig.Direction < 0:
		accepted = c.side == models.SideShort && q.Bid < c.level
	}
	if !accepted {
		logger.Debug("[%s] %s skip %s signal: side=%s level=%.4f bid=%.4f ask=%.4f",
			sig.Time.Format("2006-01-02 15:04:05"), c.instrument, sig.Direction, c.side, c.level, q.Bid, q.Ask)
		return 0, false, nil
	}

	if err := c.gate.setStop(sig.Time, c.level); err != nil {
		return 0, false, err
	}
	return float64(sig.Direction) * c.cfg.Size, true, nil
}

// Snapshot reports the channel state as of the last closed bar.
func (c *Chandelier) Snapshot() models.LevelSnapshot {
	return models.LevelSnapshot{Time: c.updated.Time, Side: c.side, Level: c.level, Set: c.levelSet}
}

func (c *Chandelier) Dump() string {
	return fmt.Sprintf("%s chandelier: side=%s level=%.4f halted=%v", c.instrument, c.side, c.level, c.gate.halted())
}
