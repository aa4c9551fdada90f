package storage

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"trade_tracker/internal/backtest"
	"trade_tracker/internal/config"
	"trade_tracker/pkg/db"
)

// RunInfo identifies one backtest run.
type RunInfo struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Notes      string
	// Config is stored as-is next to the results.
	Config any
}

// Sink persists the audit trail and summaries of a run.
type Sink interface {
	Save(ctx context.Context, run RunInfo, results []backtest.Result) error
}

type nopSink struct{}

func (nopSink) Save(context.Context, RunInfo, []backtest.Result) error { return nil }

// NewSink выбирает реализацию по backtest.audit.format.
func NewSink(cfg *config.Config, tx db.TxManager) (Sink, error) {
	switch cfg.Backtest.Audit.Format {
	case config.AuditNone, "":
		return nopSink{}, nil
	case config.AuditJSON:
		return NewJSONSink(cfg.Backtest.Audit.Dir), nil
	case config.AuditParquet:
		return NewParquetSink(cfg.Backtest.Audit.Dir), nil
	case config.AuditPostgres:
		if tx == nil {
			return nil, errors.New("postgres audit sink requires a database")
		}
		return NewPostgresSink(tx), nil
	}
	return nil, errors.Errorf("unknown audit format %q", cfg.Backtest.Audit.Format)
}

// finite maps NaN and Inf to nil for JSON output.
func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
