package backtest

import (
	"testing"
	"time"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/peterldowns/testy/assert"
)

// series builds a 15m candle series from OHLC rows.
func series(t *testing.T, ohlc [][4]float64) []shared.Candlestick {
	t.Helper()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]shared.Candlestick, 0, len(ohlc))
	for idx, fields := range ohlc {
		candle := shared.Candlestick{
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Date:      start.Add(time.Duration(idx) * time.Minute * 15),
			Market:    "BTCUSDT",
			Timeframe: shared.FifteenMinute,
		}
		assert.NoError(t, candle.Validate())
		candles = append(candles, candle)
	}

	return candles
}

func TestFindLiquidityLong(t *testing.T) {
	candles := series(t, [][4]float64{
		{100, 120, 98, 110},
		{110, 115, 105, 108},
		{108, 112, 100, 102},
	})

	// The highest high above the current close anchors the long target.
	target := FindLiquidity(candles, 2, shared.Long, 10)
	assert.Equal(t, target, float64(120))
}

func TestFindLiquidityShort(t *testing.T) {
	candles := series(t, [][4]float64{
		{100, 105, 80, 95},
		{95, 102, 90, 98},
		{98, 104, 96, 100},
	})

	// The lowest low below the current close anchors the short target.
	target := FindLiquidity(candles, 2, shared.Short, 10)
	assert.Equal(t, target, float64(80))
}

func TestFindLiquidityFallback(t *testing.T) {
	// The current candle closes at the window high, so no liquidity rests above
	// and the percentage fallback applies.
	candles := series(t, [][4]float64{
		{100, 102, 98, 101},
		{101, 103, 100, 102},
		{102, 105, 101, 105},
	})

	target := FindLiquidity(candles, 2, shared.Long, 10)
	assert.Equal(t, target, 105*(1+fallbackTargetPct))

	// Mirrored for shorts closing at the window low.
	candles = series(t, [][4]float64{
		{105, 106, 103, 104},
		{104, 105, 101, 102},
		{102, 103, 100, 100},
	})

	target = FindLiquidity(candles, 2, shared.Short, 10)
	assert.Equal(t, target, 100*(1-fallbackTargetPct))
}

func TestTakeProfitLiquidity(t *testing.T) {
	candles := series(t, [][4]float64{
		{100, 120, 98, 110},
		{110, 115, 105, 108},
		{108, 112, 100, 102},
	})

	// Liquidity at 120, entry 102, stop 100: risk 2, reward 18, RR 9.
	target := takeProfit(candles, 2, 102, 100, shared.Long, shared.Liquidity, 0, 10)
	assert.Equal(t, target, float64(120))

	// A wide stop collapses the RR below the minimum and rejects the target.
	target = takeProfit(candles, 2, 102, 88, shared.Long, shared.Liquidity, 0, 10)
	assert.Equal(t, target, float64(0))

	// A tiny stop distance produces an absurd RR and clamps to the maximum
	// reward multiple.
	target = takeProfit(candles, 2, 102, 101, shared.Long, shared.Liquidity, 0, 10)
	assert.Equal(t, target, 102+1*maxRewardMultiple)
}

func TestTakeProfitFixedRR(t *testing.T) {
	candles := series(t, [][4]float64{
		{100, 120, 98, 110},
		{110, 115, 105, 108},
		{108, 112, 100, 102},
	})

	// Fixed RR projects the multiple of the risked distance.
	target := takeProfit(candles, 2, 102, 100, shared.Long, shared.FixedRR, 3, 10)
	assert.Equal(t, target, float64(108))

	target = takeProfit(candles, 2, 102, 104, shared.Short, shared.FixedRR, 3, 10)
	assert.Equal(t, target, float64(96))

	// A degenerate zero risk distance yields no target.
	target = takeProfit(candles, 2, 102, 102, shared.Long, shared.FixedRR, 3, 10)
	assert.Equal(t, target, float64(0))
}
