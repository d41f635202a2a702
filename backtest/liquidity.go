package backtest

import (
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

const (
	// minLiquidityRR is the minimum risk reward a liquidity target must imply.
	minLiquidityRR = 1.5
	// maxRewardMultiple caps unrealistically distant liquidity targets.
	maxRewardMultiple = 10.0
	// fallbackTargetPct is the default target distance when no liquidity is found.
	fallbackTargetPct = 0.015
)

// FindLiquidity locates a take profit target from resting liquidity in the trailing
// lookback window: for longs the highest high above the current close, for shorts
// the lowest low below it. Falls back to the window extreme, then to a fixed
// percentage move, so a target is always produced.
func FindLiquidity(candles []shared.Candlestick, idx int, direction shared.Direction, lookback int) float64 {
	start := idx - lookback
	if start < 0 {
		start = 0
	}

	currentPrice := candles[idx].Close

	switch direction {
	case shared.Long:
		var target float64
		var windowHigh float64
		for i := start; i <= idx; i++ {
			if candles[i].High > windowHigh {
				windowHigh = candles[i].High
			}
			if candles[i].High > currentPrice && candles[i].High > target {
				target = candles[i].High
			}
		}
		if target > 0 {
			return target
		}
		if windowHigh > currentPrice {
			return windowHigh
		}
		return currentPrice * (1 + fallbackTargetPct)

	default:
		var target float64
		var windowLow float64
		for i := start; i <= idx; i++ {
			if windowLow == 0 || candles[i].Low < windowLow {
				windowLow = candles[i].Low
			}
			if candles[i].Low < currentPrice && (target == 0 || candles[i].Low < target) {
				target = candles[i].Low
			}
		}
		if target > 0 {
			return target
		}
		if windowLow > 0 && windowLow < currentPrice {
			return windowLow
		}
		return currentPrice * (1 - fallbackTargetPct)
	}
}

// takeProfit derives a take profit target for the provided entry and stop. Liquidity
// targets implying a risk reward below the minimum are rejected (returns 0); targets
// beyond the maximum reward multiple are clamped to it. Fixed RR targets project the
// configured multiple of the risked distance.
func takeProfit(candles []shared.Candlestick, idx int, entry float64, stop float64,
	direction shared.Direction, method shared.TakeProfitMethod, fixedRR float64, lookback int) float64 {
	risk := abs(entry - stop)
	if risk == 0 {
		return 0
	}

	switch method {
	case shared.Liquidity:
		target := FindLiquidity(candles, idx, direction, lookback)
		rr := abs(target-entry) / risk
		if rr < minLiquidityRR {
			return 0
		}
		if rr > maxRewardMultiple {
			if direction == shared.Long {
				return entry + risk*maxRewardMultiple
			}
			return entry - risk*maxRewardMultiple
		}
		return target

	default:
		if direction == shared.Long {
			return entry + risk*fixedRR
		}
		return entry - risk*fixedRR
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
