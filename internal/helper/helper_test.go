package helper

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecision(t *testing.T) {
	assert.Equal(t, 0, Precision(1))
	assert.Equal(t, 0, Precision(0.01))
	assert.Equal(t, 0, Precision(-5))
	assert.Equal(t, 1, Precision(10))
	assert.Equal(t, 2, Precision(250))
}

func TestRound(t *testing.T) {
	t.Run("ties to even", func(t *testing.T) {
		assert.Equal(t, 12.0, Round(12.5, 0))
		assert.Equal(t, 14.0, Round(13.5, 0))
		assert.Equal(t, 50.0, Round(50, 0))
	})

	t.Run("decimals", func(t *testing.T) {
		assert.InDelta(t, 1.23, Round(1.2345, 2), 1e-12)
	})

	t.Run("small sizes round to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Round(100*math.Pow(0.1, 3), 0))
	})

	t.Run("non finite passes through", func(t *testing.T) {
		assert.True(t, math.IsNaN(Round(math.NaN(), 0)))
	})
}

func TestSplitInstrument(t *testing.T) {
	ex, sym, err := SplitInstrument("binance:btcusdt")
	require.NoError(t, err)
	assert.Equal(t, "BINANCE", ex)
	assert.Equal(t, "BTCUSDT", sym)

	for _, bad := range []string{"BTCUSDT", ":BTC", "BINANCE:"} {
		_, _, err := SplitInstrument(bad)
		assert.ErrorIs(t, err, ErrInstrumentName, bad)
		_, traced := err.(interface{ StackTrace() errors.StackTrace })
		assert.True(t, traced, "error carries a stack trace")
	}
}

func TestSignAndFinite(t *testing.T) {
	assert.Equal(t, 1.0, Sign(3))
	assert.Equal(t, -1.0, Sign(-0.1))
	assert.Equal(t, 0.0, Sign(0))
	assert.True(t, IsFinite(1, 2))
	assert.False(t, IsFinite(1, math.Inf(1)))
}
