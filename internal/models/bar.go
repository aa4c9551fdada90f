package models

import "time"

// Bar is one closed OHLCV record. Time is the bar open time.
type Bar struct {
	Time   time.Time `json:"time" parquet:"time,timestamp"`
	Open   float64   `json:"open" parquet:"open"`
	High   float64   `json:"high" parquet:"high"`
	Low    float64   `json:"low" parquet:"low"`
	Close  float64   `json:"close" parquet:"close"`
	Volume float64   `json:"volume" parquet:"volume"`
}
