package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_tracker/internal/models"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func quote(bid, ask float64) models.Quote {
	return models.Quote{Time: t0, Bid: bid, Ask: ask}
}

func TestLedgerTrades(t *testing.T) {
	t.Run("rejects before first quote", func(t *testing.T) {
		l := New("X:Y")
		err := l.RequestTrade(t0, 10, "entry")
		assert.ErrorIs(t, err, ErrRejected)
		assert.Empty(t, l.Audit())
	})

	t.Run("long scale in averages cost", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(99.5, 100))
		require.NoError(t, l.RequestTrade(t0, 100, "entry"))
		assert.Equal(t, 100.0, l.AveragePrice())

		l.Mark(quote(111.5, 112))
		require.NoError(t, l.RequestTrade(t0, 125, "step"))
		assert.Equal(t, 125.0, l.CurrentQuantity())
		assert.InDelta(t, 102.4, l.AveragePrice(), 1e-9)

		audit := l.Audit()
		require.Len(t, audit, 2)
		assert.Equal(t, 25.0, audit[1].Delta)
		assert.Equal(t, 112.0, audit[1].Price)
	})

	t.Run("reduction books pnl and keeps average", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(50, 50))
		require.NoError(t, l.RequestTrade(t0, -100, "short"))
		l.Mark(quote(45, 45))
		require.NoError(t, l.RequestTrade(t0, -60, "cover"))

		assert.Equal(t, -60.0, l.CurrentQuantity())
		assert.InDelta(t, 50.0, l.AveragePrice(), 1e-9)
		assert.InDelta(t, 200.0, l.Summary().RealizedPnL, 1e-9)
	})

	t.Run("flatten clears stop and average", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(10, 10))
		require.NoError(t, l.RequestTrade(t0, 5, "entry"))
		require.NoError(t, l.SetStop(t0, 9))
		l.Mark(quote(12, 12))
		require.NoError(t, l.RequestTrade(t0, 0, "Take profit"))

		assert.Equal(t, 0.0, l.CurrentQuantity())
		assert.True(t, math.IsNaN(l.AveragePrice()))
		assert.True(t, math.IsNaN(l.CurrentStop()))
		assert.InDelta(t, 10.0, l.Summary().RealizedPnL, 1e-9)
	})

	t.Run("reversal opens remainder", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(10, 10))
		require.NoError(t, l.RequestTrade(t0, 5, "entry"))
		require.NoError(t, l.RequestTrade(t0, -3, "flip"))
		assert.Equal(t, -3.0, l.CurrentQuantity())
		assert.Equal(t, 10.0, l.AveragePrice())
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(10, 10))
		require.NoError(t, l.RequestTrade(t0, 0, "noop"))
		assert.Empty(t, l.Audit())
	})

	t.Run("risk limit", func(t *testing.T) {
		l := New("X:Y", WithMaxQuantity(100))
		l.Mark(quote(10, 10))
		require.NoError(t, l.RequestTrade(t0, -100, "entry"))
		err := l.RequestTrade(t0, -101, "add")
		assert.ErrorIs(t, err, ErrRejected)
		assert.Equal(t, -100.0, l.CurrentQuantity())
	})

	t.Run("non finite target", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(10, 10))
		assert.ErrorIs(t, l.RequestTrade(t0, math.NaN(), "x"), ErrRejected)
	})
}

func TestLedgerStops(t *testing.T) {
	t.Run("non finite stop is rejected", func(t *testing.T) {
		l := New("X:Y")
		assert.ErrorIs(t, l.SetStop(t0, math.Inf(1)), ErrRejected)
	})

	t.Run("long stop triggers on bid", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(100, 100.5))
		require.NoError(t, l.RequestTrade(t0, 10, "entry"))
		require.NoError(t, l.SetStop(t0, 95))

		assert.False(t, l.CheckStop(quote(95.5, 96)))
		assert.True(t, l.CheckStop(quote(94.8, 95.2)))
		assert.Equal(t, 0.0, l.CurrentQuantity())

		s := l.Summary()
		assert.Equal(t, 1, s.StopHits)
		assert.InDelta(t, (94.8-100.5)*10, s.RealizedPnL, 1e-9)

		audit := l.Audit()
		assert.Equal(t, models.AuditStopHit, audit[len(audit)-1].Kind)
	})

	t.Run("short stop triggers on ask", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(100, 100))
		require.NoError(t, l.RequestTrade(t0, -10, "entry"))
		require.NoError(t, l.SetStop(t0, 105))

		assert.False(t, l.CheckStop(quote(104, 104.9)))
		assert.True(t, l.CheckStop(quote(104.9, 105)))
		assert.Equal(t, 0.0, l.CurrentQuantity())
	})

	t.Run("cancel clears a stop on a flat book only", func(t *testing.T) {
		l := New("X:Y")
		assert.False(t, l.CancelStop(t0, "entry rejected"), "nothing to cancel")

		require.NoError(t, l.SetStop(t0, 95))
		assert.True(t, l.CancelStop(t0, "entry rejected"))
		assert.True(t, math.IsNaN(l.CurrentStop()))
		audit := l.Audit()
		last := audit[len(audit)-1]
		assert.Equal(t, models.AuditStopCancel, last.Kind)
		assert.Equal(t, 95.0, last.Price)
		assert.Equal(t, "entry rejected", last.Reason)

		l.Mark(quote(100, 100))
		require.NoError(t, l.RequestTrade(t0, 10, "entry"))
		require.NoError(t, l.SetStop(t0, 96))
		assert.False(t, l.CancelStop(t0, "entry rejected"))
		assert.Equal(t, 96.0, l.CurrentStop())
	})

	t.Run("stop set while flat survives entry", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(100, 100))
		require.NoError(t, l.SetStop(t0, 94))
		require.NoError(t, l.RequestTrade(t0, 100, "entry"))
		assert.Equal(t, 94.0, l.CurrentStop())
	})

	t.Run("no stop no trigger", func(t *testing.T) {
		l := New("X:Y")
		l.Mark(quote(100, 100))
		require.NoError(t, l.RequestTrade(t0, 1, "entry"))
		assert.False(t, l.CheckStop(quote(1, 1)))
	})
}
