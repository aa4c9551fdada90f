package models

import "time"

type AuditKind string

const (
	AuditStop       AuditKind = "stop"
	AuditTrade      AuditKind = "trade"
	AuditStopHit    AuditKind = "stop_hit"
	// AuditStopCancel drops a stop left on a flat book by a rejected entry.
	AuditStopCancel AuditKind = "stop_cancel"
)

// AuditEntry records one command accepted by the ledger.
type AuditEntry struct {
	Time       time.Time `json:"time" parquet:"time,timestamp"`
	Instrument string    `json:"instrument" parquet:"instrument"`
	Kind       AuditKind `json:"kind" parquet:"kind"`
	Delta      float64   `json:"delta" parquet:"delta"`
	Target     float64   `json:"target" parquet:"target"`
	Price      float64   `json:"price" parquet:"price"`
	Reason     string    `json:"reason" parquet:"reason"`
}

// PositionSummary is the end-of-run state of one instrument's ledger.
type PositionSummary struct {
	Instrument   string  `json:"instrument"`
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
	Stop         float64 `json:"stop"`
	RealizedPnL  float64 `json:"realized_pnl"`
	Trades       int     `json:"trades"`
	StopUpdates  int     `json:"stop_updates"`
	StopHits     int     `json:"stop_hits"`
}
