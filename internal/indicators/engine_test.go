package indicators

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/verdict/internal/contracts"
)

// risingHistory builds n days of strictly increasing closes
func risingHistory(t *testing.T, n int) contracts.OhlcvHistory {
	t.Helper()
	h := make(contracts.OhlcvHistory, 0, n)
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100.0 + float64(i)
		bar, err := contracts.NewOhlcvBar(
			start.AddDate(0, 0, i).Format("2006-01-02"),
			c-0.5, c+1, c-1, c, 1000+float64(i)*10,
		)
		require.NoError(t, err)
		h = append(h, bar)
	}
	return h
}

func TestCompute_SMA20Window(t *testing.T) {
	history := risingHistory(t, 25)
	sets := NewEngine().Compute(history)
	require.Len(t, sets, 25)

	// days 1-19: insufficient window
	for i := 0; i < 19; i++ {
		s := sets[history[i].Date]
		assert.Nil(t, s.SMA20, "day %d should have no sma_20", i+1)
	}

	// day 20: mean of closes 100..119
	day20 := sets["2025-01-20"]
	require.NotNil(t, day20.SMA20)
	assert.InDelta(t, 109.5, *day20.SMA20, 1e-9)

	// day 25: mean of closes 105..124
	day25 := sets["2025-01-25"]
	require.NotNil(t, day25.SMA20)
	assert.InDelta(t, 114.5, *day25.SMA20, 1e-9)
}

func TestCompute_BreakoutLevels(t *testing.T) {
	history := risingHistory(t, 25)
	sets := NewEngine().Compute(history)

	day20 := sets["2025-01-20"]
	require.NotNil(t, day20.HH20)
	require.NotNil(t, day20.LL20)
	// highest high = day-20 high, lowest low = day-1 low
	assert.InDelta(t, 120.0, *day20.HH20, 1e-9)
	assert.InDelta(t, 99.0, *day20.LL20, 1e-9)
	assert.Greater(t, *day20.HH20, *day20.LL20)

	assert.Nil(t, sets["2025-01-19"].HH20)
}

func TestCompute_RSIMissingWhenNoLosses(t *testing.T) {
	// strictly increasing closes: average loss is 0, the ratio is undefined
	history := risingHistory(t, 25)
	sets := NewEngine().Compute(history)

	assert.Nil(t, sets["2025-01-20"].RSI14)
}

func TestCompute_RSIDefinedWithMixedMoves(t *testing.T) {
	h := make(contracts.OhlcvHistory, 0, 20)
	closes := []float64{100, 102, 101, 103, 102, 104, 103, 105, 104, 106,
		105, 107, 106, 108, 107, 109, 108, 110, 109, 111}
	for i, c := range closes {
		bar, err := contracts.NewOhlcvBar(
			fmt.Sprintf("2025-02-%02d", i+1), c, c+1, c-1, c, 1000)
		require.NoError(t, err)
		h = append(h, bar)
	}

	sets := NewEngine().Compute(h)
	rsi := sets["2025-02-15"].RSI14
	require.NotNil(t, rsi)
	assert.Greater(t, *rsi, 0.0)
	assert.Less(t, *rsi, 100.0)
}

func TestCompute_FirstDaySemantics(t *testing.T) {
	history := risingHistory(t, 25)
	sets := NewEngine().Compute(history)

	day1 := sets["2025-01-01"]
	assert.Nil(t, day1.Ret1D)
	assert.Nil(t, day1.Gap)
	// TR falls back to high-low without a previous close
	require.NotNil(t, day1.TrueRange)
	assert.InDelta(t, 2.0, *day1.TrueRange, 1e-9)
	// OBV day-one contribution is zero
	require.NotNil(t, day1.OBV)
	assert.Equal(t, 0.0, *day1.OBV)
	// EMA seeded at the first close
	require.NotNil(t, day1.EMA20)
	assert.InDelta(t, 100.0, *day1.EMA20, 1e-9)
}

func TestCompute_OBVAccumulates(t *testing.T) {
	history := risingHistory(t, 3)
	sets := NewEngine().Compute(history)

	// rising closes: obv = vol(day2) + vol(day3)
	require.NotNil(t, sets["2025-01-03"].OBV)
	assert.InDelta(t, 1010+1020, *sets["2025-01-03"].OBV, 1e-9)
}

func TestCompute_AllFinite(t *testing.T) {
	history := risingHistory(t, 60)
	for _, s := range NewEngine().Compute(history) {
		assert.True(t, s.AllFinite())
	}
}

func TestCompute_Deterministic(t *testing.T) {
	history := risingHistory(t, 40)
	a := NewEngine().Compute(history)
	b := NewEngine().Compute(history)

	require.Equal(t, len(a), len(b))
	for date, sa := range a {
		assert.Equal(t, sa, b[date], "date %s", date)
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	sets := NewEngine().Compute(nil)
	assert.Empty(t, sets)
}
