package backtest

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"trade_tracker/internal/feed"
	"trade_tracker/internal/indicators"
	"trade_tracker/internal/ledger"
	"trade_tracker/internal/metrics"
	"trade_tracker/internal/models"
	"trade_tracker/internal/notify"
	"trade_tracker/internal/tracker"
	"trade_tracker/pkg/logger"
	"trade_tracker/pkg/tracing"
)

// Instrument is everything needed to replay one tracker.
type Instrument struct {
	Name        string
	Preset      tracker.Preset
	Bars        []models.Bar
	Quotes      feed.QuoteSource
	Signals     []models.Signal
	MaxQuantity float64
}

type Option func(*Engine)

func WithWorkers(n int) Option { return func(e *Engine) { e.workers = n } }

// WithHorizon stops every replay before the first event later than t.
func WithHorizon(t time.Time) Option { return func(e *Engine) { e.horizon = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithNotifier(n notify.Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithProgress registers fn to be called from worker goroutines after each instrument finishes.
func WithProgress(fn func(Result)) Option { return func(e *Engine) { e.progress = fn } }

// Engine replays recorded bars, quotes and signals through trackers, one worker per instrument.
type Engine struct {
	workers  int
	horizon  time.Time
	metrics  *metrics.Metrics
	notifier notify.Notifier
	progress func(Result)
}

func New(opts ...Option) *Engine {
	e := &Engine{notifier: notify.NewStdout()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates every preset first, then replays instruments in parallel.
// Results keep the input order; execution failures are reported per result, not as an error.
func (e *Engine) Run(ctx context.Context, instruments []Instrument) ([]Result, error) {
	for _, inst := range instruments {
		if err := inst.Preset.Validate(); err != nil {
			return nil, errors.Wrap(err, inst.Name)
		}
	}
	defer logger.Sync()

	results := make([]Result, len(instruments))
	g, gctx := errgroup.WithContext(ctx)
	workers := e.workers
	if workers <= 0 {
		workers = len(instruments)
	}
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range instruments {
		g.Go(func() error {
			res, err := e.RunInstrument(gctx, instruments[i])
			if err != nil {
				return err
			}
			results[i] = res
			if e.progress != nil {
				e.progress(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunInstrument replays one instrument. Only construction errors are returned.
func (e *Engine) RunInstrument(ctx context.Context, inst Instrument) (Result, error) {
	strategy := string(inst.Preset.Strategy)
	span, ctx := tracing.StartSpan(ctx, "backtest.instrument", opentracing.Tags{
		"instrument": inst.Name,
		"strategy":   strategy,
	})
	defer span.Finish()

	book := ledger.New(inst.Name, ledger.WithMaxQuantity(inst.MaxQuantity))
	tr, fd, err := tracker.New(inst.Name, inst.Preset, &countingBook{Book: book, strategy: strategy, m: e.metrics})
	if err != nil {
		ext.Error.Set(span, true)
		return Result{}, err
	}
	tr.Initialize()

	r := &replay{
		engine: e,
		inst:   inst,
		book:   book,
		feed:   fd,
		tr:     tr,
		res:    Result{Instrument: inst.Name, Strategy: inst.Preset.Strategy, Stop: StopCompleted},
	}
	r.chandelier, _ = tr.(*tracker.Chandelier)
	r.run(ctx)

	res := r.res
	res.Summary = book.Summary()
	res.Audit = book.Audit()

	span.SetTag("stop_reason", string(res.Stop))
	if res.Err != nil {
		ext.Error.Set(span, true)
		span.LogKV("event", "error", "message", res.Err.Error())
	}
	logger.Info("[%s] %s replay %s: bars=%d quotes=%d signals=%d accepted=%d trades=%d pnl=%.4f trace=%s",
		inst.Name, strategy, res.Stop, res.Bars, res.Quotes, res.Signals, res.Accepted,
		res.Summary.Trades, res.Summary.RealizedPnL, tracing.TraceID(ctx))
	return res, nil
}

type replay struct {
	engine     *Engine
	inst       Instrument
	book       *ledger.Ledger
	feed       *indicators.Feed
	tr         tracker.Tracker
	chandelier *tracker.Chandelier

	nextSignal int
	res        Result
}

func (r *replay) run(ctx context.Context) {
	bars := r.inst.Bars
	for i, bar := range bars {
		if r.stopped(ctx, bar.Time) {
			return
		}
		// закрытие предыдущего бара идёт раньше котировок текущего
		if i > 0 {
			r.feed.Update(bars[i-1])
			r.res.Bars++
			r.engine.metrics.Bar(string(r.inst.Preset.Strategy))
			if err := r.tr.OnBar(bars[i-1]); err != nil {
				r.halt(err)
				return
			}
			if r.chandelier != nil {
				r.res.Snapshots = append(r.res.Snapshots, r.chandelier.Snapshot())
			}
		}

		var end time.Time
		if i+1 < len(bars) {
			end = bars[i+1].Time
		}
		for _, q := range r.inst.Quotes.ForBar(bar, end) {
			if r.stopped(ctx, q.Time) {
				return
			}
			if err := r.onQuote(q); err != nil {
				r.halt(err)
				return
			}
		}
	}
}

func (r *replay) stopped(ctx context.Context, t time.Time) bool {
	if ctx.Err() != nil {
		r.res.Stop = StopCancelled
		return true
	}
	if h := r.engine.horizon; !h.IsZero() && t.After(h) {
		r.res.Stop = StopHorizon
		return true
	}
	return false
}

func (r *replay) onQuote(q models.Quote) error {
	r.res.Quotes++
	r.book.Mark(q)
	if err := r.tr.OnQuote(q); err != nil {
		return err
	}
	if r.book.CheckStop(q) {
		logger.Debug("[%s] %s stop hit at bid=%.4f ask=%.4f", q.Time.Format(time.RFC3339), r.inst.Name, q.Bid, q.Ask)
	}

	// сигналы доставляются с первой котировкой не раньше их времени
	signals := r.inst.Signals
	for r.nextSignal < len(signals) && !signals[r.nextSignal].Time.After(q.Time) {
		sig := signals[r.nextSignal]
		r.nextSignal++
		if err := r.onSignal(sig, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *replay) onSignal(sig models.Signal, q models.Quote) error {
	strategy := string(r.inst.Preset.Strategy)
	r.res.Signals++

	target, ok, err := r.tr.OnSignal(sig, q)
	if err != nil {
		r.engine.metrics.Signal(strategy, metrics.OutcomeFailed)
		return err
	}
	if !ok {
		r.engine.metrics.Signal(strategy, metrics.OutcomeIgnored)
		return nil
	}
	if err := r.book.RequestTrade(sig.Time, target, "signal "+sig.Direction.String()); err != nil {
		// стоп входа уже выставлен, на плоской книге он не нужен
		r.book.CancelStop(sig.Time, "entry rejected")
		r.engine.metrics.Signal(strategy, metrics.OutcomeFailed)
		return err
	}
	r.engine.metrics.Command(strategy, metrics.KindTrade)
	r.engine.metrics.Signal(strategy, metrics.OutcomeAccepted)
	r.res.Accepted++
	return nil
}

func (r *replay) halt(err error) {
	r.res.Stop = StopHalted
	r.res.Err = err
	strategy := r.inst.Preset.Strategy
	logger.Error("[%s] %s halted: %v", r.inst.Name, strategy, err)
	r.engine.metrics.Halt(string(strategy))
	if r.engine.notifier != nil {
		r.engine.notifier.Send(notify.FormatHalt(r.inst.Name, strategy, err))
	}
}
