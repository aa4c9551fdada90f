package models

import "time"

type StrategyType string

const (
	StrategyPyramiding StrategyType = "pyramiding"
	StrategyChandelier StrategyType = "chandelier"
)

// Side is a trend or position direction: +1 long/up, -1 short/down, 0 none.
type Side int

const (
	SideNone  Side = 0
	SideLong  Side = 1
	SideShort Side = -1
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "long"
	case SideShort:
		return "short"
	default:
		return "none"
	}
}

// SideOf returns the sign of x as a Side.
func SideOf(x float64) Side {
	switch {
	case x > 0:
		return SideLong
	case x < 0:
		return SideShort
	default:
		return SideNone
	}
}

// Signal is a directional entry instruction from the upstream classifier.
type Signal struct {
	Time       time.Time
	Instrument string
	Direction  Side
}
