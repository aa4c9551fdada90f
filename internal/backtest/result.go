package backtest

import (
	"trade_tracker/internal/models"
)

type StopReason string

const (
	StopCompleted StopReason = "completed"
	StopHorizon   StopReason = "horizon"
	StopCancelled StopReason = "cancelled"
	StopHalted    StopReason = "halted"
)

// Result is the outcome of one instrument's replay.
type Result struct {
	Instrument string
	Strategy   models.StrategyType
	Summary    models.PositionSummary
	Audit      []models.AuditEntry
	// Snapshots holds the chandelier state per closed bar; empty for other strategies.
	Snapshots []models.LevelSnapshot

	Bars     int
	Quotes   int
	Signals  int
	Accepted int

	Stop StopReason
	Err  error
}

func (r Result) Halted() bool { return r.Stop == StopHalted }
