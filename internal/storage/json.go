package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"trade_tracker/internal/backtest"
	"trade_tracker/internal/models"
)

type jsonRun struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Notes      string       `json:"notes,omitempty"`
	Config     any          `json:"config,omitempty"`
	Results    []jsonResult `json:"results"`
}

type jsonResult struct {
	Instrument string              `json:"instrument"`
	Strategy   models.StrategyType `json:"strategy"`
	StopReason backtest.StopReason `json:"stop_reason"`
	Error      string              `json:"error,omitempty"`

	Quantity     float64  `json:"quantity"`
	AveragePrice *float64 `json:"average_price"`
	Stop         *float64 `json:"stop"`
	RealizedPnL  float64  `json:"realized_pnl"`
	Trades       int      `json:"trades"`
	StopUpdates  int      `json:"stop_updates"`
	StopHits     int      `json:"stop_hits"`

	Bars     int `json:"bars"`
	Quotes   int `json:"quotes"`
	Signals  int `json:"signals"`
	Accepted int `json:"accepted"`

	Audit     []models.AuditEntry `json:"audit"`
	Snapshots []jsonSnapshot      `json:"snapshots,omitempty"`
}

type jsonSnapshot struct {
	Time  time.Time   `json:"time"`
	Side  models.Side `json:"side"`
	Level *float64    `json:"level"`
}

// JSONSink writes one <run id>.json file per run.
type JSONSink struct {
	dir string
}

func NewJSONSink(dir string) *JSONSink { return &JSONSink{dir: dir} }

func (s *JSONSink) Path(runID string) string { return filepath.Join(s.dir, runID+".json") }

func (s *JSONSink) Save(_ context.Context, run RunInfo, results []backtest.Result) error {
	doc := jsonRun{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Notes:      run.Notes,
		Config:     run.Config,
		Results:    make([]jsonResult, 0, len(results)),
	}
	for _, r := range results {
		jr := jsonResult{
			Instrument:   r.Instrument,
			Strategy:     r.Strategy,
			StopReason:   r.Stop,
			Error:        errText(r.Err),
			Quantity:     r.Summary.Quantity,
			AveragePrice: finite(r.Summary.AveragePrice),
			Stop:         finite(r.Summary.Stop),
			RealizedPnL:  r.Summary.RealizedPnL,
			Trades:       r.Summary.Trades,
			StopUpdates:  r.Summary.StopUpdates,
			StopHits:     r.Summary.StopHits,
			Bars:         r.Bars,
			Quotes:       r.Quotes,
			Signals:      r.Signals,
			Accepted:     r.Accepted,
			Audit:        r.Audit,
		}
		if jr.Audit == nil {
			jr.Audit = []models.AuditEntry{}
		}
		for _, sn := range r.Snapshots {
			jr.Snapshots = append(jr.Snapshots, jsonSnapshot{Time: sn.Time, Side: sn.Side, Level: finite(sn.Level)})
		}
		doc.Results = append(doc.Results, jr)
	}

	data, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal run")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "audit dir")
	}
	return errors.Wrap(os.WriteFile(s.Path(run.ID), data, 0o644), "write run")
}
