// Package rad rebuilds the chandelier channel over a whole bar series at once.
package rad

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"trade_tracker/internal/helper"
	"trade_tracker/internal/indicators"
	"trade_tracker/internal/models"
)

// Result is indexed by bar. Stop and Side at index k are the chandelier state once
// bar k has closed; Stop is NaN while no side is established.
type Result struct {
	Time  []time.Time
	Long  []float64
	Short []float64
	Side  []models.Side
	Stop  []float64
	// Up holds bars where the active stop is the long-side value, Down the short-side ones.
	Up   []time.Time
	Down []time.Time
}

// Compute applies the chandelier switch and ratchet rule to bars.
func Compute(bars []models.Bar, period int, mult float64, smoother string) (Result, error) {
	if !helper.IsFinite(mult) {
		return Result{}, errors.Errorf("rad: non-finite multiplier %v", mult)
	}
	atr, err := indicators.ATRSeries(bars, period, smoother)
	if err != nil {
		return Result{}, errors.Wrap(err, "rad")
	}
	lows, highs := indicators.MinMaxSeries(bars, period)
	mult = math.Abs(mult)

	n := len(bars)
	res := Result{
		Time:  make([]time.Time, n),
		Long:  make([]float64, n),
		Short: make([]float64, n),
		Side:  make([]models.Side, n),
		Stop:  make([]float64, n),
	}
	for k, b := range bars {
		ch := models.NewChannelLevels(lows[k], highs[k], atr[k], mult)
		res.Time[k] = b.Time
		res.Long[k] = ch.LongStop
		res.Short[k] = ch.ShortStop
	}

	side, level := models.SideNone, math.NaN()
	for k := range bars {
		if k > 0 && helper.IsFinite(atr[k], lows[k], highs[k], atr[k-1], lows[k-1], highs[k-1]) {
			c1, c2 := bars[k].Close, bars[k-1].Close
			if c2 > res.Long[k-1] && c1 < res.Long[k] {
				side, level = models.SideShort, res.Short[k]
			}
			if c2 < res.Short[k-1] && c1 > res.Short[k] {
				side, level = models.SideLong, res.Long[k]
			}
			switch side {
			case models.SideLong:
				level = math.Max(level, res.Long[k])
			case models.SideShort:
				level = math.Min(level, res.Short[k])
			}
		}

		res.Side[k] = side
		res.Stop[k] = level
		switch side {
		case models.SideLong:
			res.Up = append(res.Up, bars[k].Time)
		case models.SideShort:
			res.Down = append(res.Down, bars[k].Time)
		}
	}
	return res, nil
}

type Mismatch struct {
	Time time.Time
	Want models.LevelSnapshot
	Got  models.LevelSnapshot
}

// Verify compares live snapshots with the batch result bar by bar. Levels must match exactly.
func Verify(res Result, snaps []models.LevelSnapshot) ([]Mismatch, error) {
	index := make(map[int64]int, len(res.Time))
	for k, t := range res.Time {
		index[t.UnixNano()] = k
	}

	var out []Mismatch
	for _, s := range snaps {
		k, ok := index[s.Time.UnixNano()]
		if !ok {
			return nil, errors.Errorf("rad: snapshot at %s has no matching bar", s.Time.Format(time.RFC3339))
		}
		want := models.LevelSnapshot{
			Time:  s.Time,
			Side:  res.Side[k],
			Level: res.Stop[k],
			Set:   res.Side[k] != models.SideNone,
		}
		if !same(want, s) {
			out = append(out, Mismatch{Time: s.Time, Want: want, Got: s})
		}
	}
	return out, nil
}

func same(a, b models.LevelSnapshot) bool {
	if a.Side != b.Side || a.Set != b.Set {
		return false
	}
	if !a.Set {
		return true
	}
	return a.Level == b.Level
}
