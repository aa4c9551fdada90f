package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_tracker/internal/models"
)

const equalityThreshold = 1e-9

// closes 10,11,9,13,8,15 with highs/lows one point around the close
func sampleBars() []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{10, 11, 9, 13, 8, 15}
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

func TestTrueRange(t *testing.T) {
	bars := sampleBars()
	expected := []float64{2, 2, 3, 5, 6, 8}
	prev, has := 0.0, false
	for i, b := range bars {
		assert.Equal(t, expected[i], TrueRange(b, prev, has), "bar %d", i)
		prev, has = b.Close, true
	}
}

func TestSmoothers(t *testing.T) {
	t.Run("sma", func(t *testing.T) {
		s, err := NewSmoother("sma", 3)
		require.NoError(t, err)
		s.Update(2)
		s.Update(2)
		assert.False(t, s.Ready())
		assert.True(t, math.IsNaN(s.Value()))
		s.Update(3)
		assert.InDelta(t, 7.0/3, s.Value(), equalityThreshold)
		s.Update(5)
		assert.InDelta(t, 10.0/3, s.Value(), equalityThreshold)
	})

	t.Run("ema", func(t *testing.T) {
		s, err := NewSmoother("EMA", 3)
		require.NoError(t, err)
		s.Update(2)
		s.Update(2)
		assert.False(t, s.Ready())
		s.Update(3)
		assert.InDelta(t, 2.5, s.Value(), equalityThreshold)
		s.Update(5)
		assert.InDelta(t, 3.75, s.Value(), equalityThreshold)
	})

	t.Run("wma", func(t *testing.T) {
		s, err := NewSmoother("wma", 3)
		require.NoError(t, err)
		for _, x := range []float64{2, 2, 3} {
			s.Update(x)
		}
		assert.InDelta(t, 15.0/6, s.Value(), equalityThreshold)
	})

	t.Run("empty name defaults to sma", func(t *testing.T) {
		s, err := NewSmoother("", 2)
		require.NoError(t, err)
		assert.IsType(t, &sma{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewSmoother("hull", 3)
		assert.ErrorIs(t, err, ErrUnknownSmoother)
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := NewSmoother("sma", 0)
		assert.Error(t, err)
	})
}

func TestATRSeries(t *testing.T) {
	atr, err := ATRSeries(sampleBars(), 3, "sma")
	require.NoError(t, err)

	assert.True(t, math.IsNaN(atr[0]))
	assert.True(t, math.IsNaN(atr[1]))
	assert.InDelta(t, 7.0/3, atr[2], equalityThreshold)
	assert.InDelta(t, 10.0/3, atr[3], equalityThreshold)
	assert.InDelta(t, 14.0/3, atr[4], equalityThreshold)
	assert.InDelta(t, 19.0/3, atr[5], equalityThreshold)
}

func TestMinMaxSeries(t *testing.T) {
	lows, highs := MinMaxSeries(sampleBars(), 3)

	assert.True(t, math.IsNaN(lows[1]))
	assert.Equal(t, []float64{8, 8, 7, 7}, lows[2:])
	assert.Equal(t, []float64{12, 14, 14, 16}, highs[2:])
}

func TestFeed(t *testing.T) {
	bars := sampleBars()
	feed, err := NewFeed(3, "sma", 3)
	require.NoError(t, err)

	t.Run("not ready before any bar", func(t *testing.T) {
		_, ok := feed.ATR(1)
		assert.False(t, ok)
		_, _, ok = feed.MinMax(1)
		assert.False(t, ok)
		_, ok = feed.Bar(1)
		assert.False(t, ok)
	})

	t.Run("warming up", func(t *testing.T) {
		feed.Update(bars[0])
		feed.Update(bars[1])

		b, ok := feed.Bar(1)
		require.True(t, ok)
		assert.Equal(t, 11.0, b.Close)

		_, ok = feed.ATR(1)
		assert.False(t, ok)
	})

	t.Run("lag 1 and lag 2", func(t *testing.T) {
		feed.Update(bars[2])
		feed.Update(bars[3])

		a1, ok := feed.ATR(1)
		require.True(t, ok)
		assert.InDelta(t, 10.0/3, a1, equalityThreshold)

		a2, ok := feed.ATR(2)
		require.True(t, ok)
		assert.InDelta(t, 7.0/3, a2, equalityThreshold)

		low, high, ok := feed.MinMax(1)
		require.True(t, ok)
		assert.Equal(t, 8.0, low)
		assert.Equal(t, 14.0, high)

		b2, ok := feed.Bar(2)
		require.True(t, ok)
		assert.Equal(t, 9.0, b2.Close)
	})

	t.Run("lag out of range", func(t *testing.T) {
		_, ok := feed.ATR(3)
		assert.False(t, ok)
		_, ok = feed.ATR(0)
		assert.False(t, ok)
	})

	t.Run("non finite input is not ready", func(t *testing.T) {
		f, err := NewFeed(1, "sma", 1)
		require.NoError(t, err)
		f.Update(models.Bar{High: math.NaN(), Low: 1, Close: 1})
		_, ok := f.ATR(1)
		assert.False(t, ok)
	})
}

func TestFeedMatchesSeries(t *testing.T) {
	bars := sampleBars()
	atr, err := ATRSeries(bars, 3, "wma")
	require.NoError(t, err)
	lows, highs := MinMaxSeries(bars, 3)

	feed, err := NewFeed(3, "wma", 3)
	require.NoError(t, err)
	for i, b := range bars {
		feed.Update(b)
		a, ok := feed.ATR(1)
		if i < 2 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok)
		assert.Equal(t, atr[i], a)

		low, high, ok := feed.MinMax(1)
		require.True(t, ok)
		assert.Equal(t, lows[i], low)
		assert.Equal(t, highs[i], high)
	}
}
