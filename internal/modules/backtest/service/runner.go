package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"trade_tracker/internal/backtest"
	"trade_tracker/internal/config"
	"trade_tracker/internal/models"
	"trade_tracker/internal/notify"
	"trade_tracker/internal/storage"
	"trade_tracker/pkg/logger"
	"trade_tracker/pkg/tracing"
)

// Progress receives per-instrument completion; the health state implements it.
type Progress interface {
	BeginRun(runID string, total int)
	InstrumentDone(halted bool, t time.Time)
	SetReady(v bool)
}

// Report is one finished run.
type Report struct {
	Run     storage.RunInfo
	Results []backtest.Result
}

func (r Report) Summaries() []models.PositionSummary {
	out := make([]models.PositionSummary, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Summary)
	}
	return out
}

// Halted counts instruments stopped by an execution failure.
func (r Report) Halted() int {
	n := 0
	for _, res := range r.Results {
		if res.Halted() {
			n++
		}
	}
	return n
}

type Runner struct {
	cfg      *config.Config
	engine   *backtest.Engine
	sink     storage.Sink
	notifier notify.Notifier
	progress Progress
	newID    func() string
}

func NewRunner(cfg *config.Config, engine *backtest.Engine, sink storage.Sink, n notify.Notifier, p Progress) *Runner {
	return &Runner{
		cfg:      cfg,
		engine:   engine,
		sink:     sink,
		notifier: n,
		progress: p,
		newID:    uuid.NewString,
	}
}

// Run loads the configured instruments, replays them, stores the audit and sends the summary.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	span, ctx := tracing.StartSpan(ctx, "backtest.run", opentracing.Tags{
		"instruments": len(r.cfg.Instruments),
	})
	defer span.Finish()

	insts, err := backtest.LoadInstruments(r.cfg)
	if err != nil {
		return Report{}, errors.Wrap(err, "load instruments")
	}

	masked := r.cfg.Masked()
	run := storage.RunInfo{
		ID:        r.newID(),
		StartedAt: time.Now().UTC(),
		Notes:     r.cfg.Backtest.Notes,
		Config:    &masked,
	}
	span.SetTag("run_id", run.ID)
	logger.Info("backtest %s: %d instruments, trace %s", run.ID, len(insts), tracing.TraceID(ctx))

	r.progress.BeginRun(run.ID, len(insts))
	r.progress.SetReady(true)
	defer r.progress.SetReady(false)

	results, err := r.engine.Run(ctx, insts)
	if err != nil {
		return Report{}, err
	}
	run.FinishedAt = time.Now().UTC()
	rep := Report{Run: run, Results: results}

	if err := r.sink.Save(ctx, run, results); err != nil {
		return rep, errors.Wrap(err, "save audit")
	}
	r.notifier.Send(notify.FormatSummary(run.ID, rep.Summaries()))
	logger.Info("backtest %s finished in %s, halted %d of %d",
		run.ID, run.FinishedAt.Sub(run.StartedAt), rep.Halted(), len(results))
	return rep, nil
}
