package models

import "time"

// ChannelLevels holds the volatility channel around rolling extremes:
// LongStop = high - mult*atr, ShortStop = low + mult*atr.
type ChannelLevels struct {
	ShortStop float64
	LongStop  float64
}

func NewChannelLevels(low, high, atr, mult float64) ChannelLevels {
	return ChannelLevels{
		ShortStop: low + mult*atr,
		LongStop:  high - mult*atr,
	}
}

// LevelSnapshot is the chandelier state observed right after the close of the bar at Time.
type LevelSnapshot struct {
	Time  time.Time `json:"time"`
	Side  Side      `json:"side"`
	Level float64   `json:"level"`
	Set   bool      `json:"set"`
}
