package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"trade_tracker/internal/backtest"
)

// AuditRow is the flat parquet layout of one audit entry.
type AuditRow struct {
	RunID      string  `parquet:"run_id"`
	Instrument string  `parquet:"instrument"`
	Strategy   string  `parquet:"strategy"`
	TimeMs     int64   `parquet:"time_ms"`
	Kind       string  `parquet:"kind"`
	Delta      float64 `parquet:"delta"`
	Target     float64 `parquet:"target"`
	Price      float64 `parquet:"price"`
	Reason     string  `parquet:"reason"`
}

// ParquetSink writes one <run id>.parquet file of audit rows per run.
type ParquetSink struct {
	dir string
}

func NewParquetSink(dir string) *ParquetSink { return &ParquetSink{dir: dir} }

func (s *ParquetSink) Path(runID string) string { return filepath.Join(s.dir, runID+".parquet") }

func (s *ParquetSink) Save(_ context.Context, run RunInfo, results []backtest.Result) error {
	rows := auditRows(run.ID, results)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "audit dir")
	}
	return errors.Wrap(parquet.WriteFile(s.Path(run.ID), rows), "write parquet")
}

// ReadAudit loads rows written by ParquetSink.
func ReadAudit(path string) ([]AuditRow, error) {
	rows, err := parquet.ReadFile[AuditRow](path)
	return rows, errors.Wrap(err, "read parquet")
}

func auditRows(runID string, results []backtest.Result) []AuditRow {
	var rows []AuditRow
	for _, r := range results {
		for _, e := range r.Audit {
			rows = append(rows, AuditRow{
				RunID:      runID,
				Instrument: e.Instrument,
				Strategy:   string(r.Strategy),
				TimeMs:     e.Time.UnixMilli(),
				Kind:       string(e.Kind),
				Delta:      e.Delta,
				Target:     e.Target,
				Price:      e.Price,
				Reason:     e.Reason,
			})
		}
	}
	return rows
}
