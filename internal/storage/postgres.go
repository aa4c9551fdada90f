package storage

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"trade_tracker/internal/backtest"
	"trade_tracker/pkg/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tracker_runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	config      JSONB
);

CREATE TABLE IF NOT EXISTS tracker_results (
	run_id        TEXT NOT NULL REFERENCES tracker_runs (id) ON DELETE CASCADE,
	instrument    TEXT NOT NULL,
	strategy      TEXT NOT NULL,
	stop_reason   TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	quantity      DOUBLE PRECISION NOT NULL,
	average_price DOUBLE PRECISION,
	stop          DOUBLE PRECISION,
	realized_pnl  DOUBLE PRECISION NOT NULL,
	trades        INTEGER NOT NULL,
	stop_updates  INTEGER NOT NULL,
	stop_hits     INTEGER NOT NULL,
	PRIMARY KEY (run_id, instrument)
);

CREATE TABLE IF NOT EXISTS tracker_audit (
	run_id     TEXT NOT NULL REFERENCES tracker_runs (id) ON DELETE CASCADE,
	instrument TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	kind       TEXT NOT NULL,
	delta      DOUBLE PRECISION NOT NULL,
	target     DOUBLE PRECISION NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	reason     TEXT NOT NULL
);
`

const insertRunSQL = `INSERT INTO tracker_runs (id, started_at, finished_at, notes, config) VALUES ($1, $2, $3, $4, $5)`

var (
	resultColumns = []string{
		"run_id", "instrument", "strategy", "stop_reason", "error", "quantity", "average_price",
		"stop", "realized_pnl", "trades", "stop_updates", "stop_hits",
	}
	auditColumns = []string{"run_id", "instrument", "strategy", "ts", "kind", "delta", "target", "price", "reason"}
)

// PostgresSink stores a run in one master transaction: the run row, then results and
// audit entries through COPY.
type PostgresSink struct {
	tx db.TxManager
}

func NewPostgresSink(tx db.TxManager) *PostgresSink { return &PostgresSink{tx: tx} }

// EnsureSchema creates the tracker tables when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	return s.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctx, schemaSQL)
		return errors.Wrap(err, "create schema")
	})
}

func (s *PostgresSink) Save(ctx context.Context, run RunInfo, results []backtest.Result) error {
	var cfg []byte
	if run.Config != nil {
		var err error
		if cfg, err = sonic.Marshal(run.Config); err != nil {
			return errors.Wrap(err, "marshal run config")
		}
	}

	return s.tx.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		if _, err := tx.Exec(ctx, insertRunSQL, run.ID, run.StartedAt, run.FinishedAt, run.Notes, cfg); err != nil {
			return errors.Wrap(err, "insert run")
		}

		resultRows := make([][]any, 0, len(results))
		for _, r := range results {
			resultRows = append(resultRows, []any{
				run.ID, r.Instrument, string(r.Strategy), string(r.Stop), errText(r.Err),
				r.Summary.Quantity, finite(r.Summary.AveragePrice), finite(r.Summary.Stop),
				r.Summary.RealizedPnL, r.Summary.Trades, r.Summary.StopUpdates, r.Summary.StopHits,
			})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"tracker_results"}, resultColumns, pgx.CopyFromRows(resultRows)); err != nil {
			return errors.Wrap(err, "copy results")
		}

		var auditRows [][]any
		for _, r := range results {
			for _, e := range r.Audit {
				auditRows = append(auditRows, []any{
					run.ID, e.Instrument, string(r.Strategy), e.Time, string(e.Kind), e.Delta, e.Target, e.Price, e.Reason,
				})
			}
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"tracker_audit"}, auditColumns, pgx.CopyFromRows(auditRows))
		if err != nil {
			return errors.Wrap(err, "copy audit")
		}
		if int(n) != len(auditRows) {
			return errors.Errorf("copy audit: wrote %d of %d rows", n, len(auditRows))
		}
		return nil
	})
}
