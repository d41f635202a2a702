package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/illiachumak/bot-liquiditysweep-sub000/gap"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

const (
	// detectLookback is the trailing candle window scanned for new gaps each close.
	// Older candles cannot produce new gaps, so full rescans are unnecessary.
	detectLookback = 10
	// breakoutBuffer offsets a breakout entry beyond the resolution price.
	breakoutBuffer = 0.001
)

// Ladder geometry for the multi level take profit variant.
var (
	ladderFractions     = []float64{0.5, 0.3, 0.2}
	ladderRiskMultiples = []float64{1.5, 2.5, 4.0}
)

// Execute replays the provided higher and lower timeframe candle series through
// the strategy. The outer loop walks closed higher timeframe candles, updating
// the gap pool; the inner loop walks the lower timeframe candles of each closed
// period in strict timestamp order, searching for setups while idle. No decision
// ever consults a candle that has not closed as of the decision's simulated time.
func (r *Run) Execute(ctx context.Context, higher []shared.Candlestick, lower []shared.Candlestick) error {
	if len(higher) < 3 || len(lower) < 3 {
		return fmt.Errorf("insufficient candle data: %d higher / %d lower candles", len(higher), len(lower))
	}
	if err := shared.EnsureAscending(higher); err != nil {
		return fmt.Errorf("higher timeframe series: %w", err)
	}
	if err := shared.EnsureAscending(lower); err != nil {
		return fmt.Errorf("lower timeframe series: %w", err)
	}

	r.cfg.Logger.Info().Msgf("replaying %s: %d %s candles, %d %s candles",
		r.cfg.Market, len(higher), higher[0].Timeframe.String(), len(lower), lower[0].Timeframe.String())

	lowIdx := 0

	// The last higher timeframe candle may still be forming and is excluded.
	for i := 0; i+1 < len(higher); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		closeTime := shared.CandleCloseTime(higher, i)

		detected := gap.Detect(higher, i-detectLookback, i+1)
		for _, g := range detected {
			if r.pool.Add(g) {
				r.stats.GapsDetected++
			}
		}

		r.stats.GapsResolved += r.pool.Update(&higher[i], closeTime, r.cfg.StrategyMode)

		nextOpen := higher[i+1].Date
		for lowIdx < len(lower) && lower[lowIdx].Date.Before(nextOpen) {
			if r.state == Idle {
				jump, err := r.evaluateSetups(lower, lowIdx)
				if err != nil {
					return err
				}
				if jump > lowIdx {
					// The simulator already consumed candles up to the exit;
					// resume scanning after it.
					lowIdx = jump
				}
			}
			lowIdx++
		}
	}

	r.cfg.Logger.Info().Msgf("replay for %s done: %d trades, final balance %.2f",
		r.cfg.Market, len(r.trades), r.balance)

	return nil
}

// evaluateSetups searches the resolved gaps for a tradeable setup at the lower
// timeframe candle idx. If a trade fills, the returned index points at its exit
// candle so the caller can skip the consumed range.
func (r *Run) evaluateSetups(lower []shared.Candlestick, idx int) (int, error) {
	current := &lower[idx]
	now := current.Date

	for _, g := range r.pool.Resolved() {
		if g.HasFilledTrade {
			continue
		}

		// The gap's resolution is not knowable yet at this simulated instant.
		if now.Before(g.ResolutionAvailableTime) {
			continue
		}

		if g.FullyPassed(current.High, current.Low) {
			r.pool.Invalidate(g)
			continue
		}

		if g.OnCooldown(now) {
			continue
		}

		order := r.createOrder(g, lower, idx)
		if order == nil {
			continue
		}
		r.stats.SetupsCreated++

		if order.CreatedTime.Before(g.ResolutionAvailableTime) {
			return 0, fmt.Errorf("%w: order at %s precedes availability of gap %s at %s",
				ErrLookaheadBias, order.CreatedTime, g.ID, g.ResolutionAvailableTime)
		}

		// Park the gap on a cooldown covering the order's fill window so an
		// expired order is not retried immediately.
		expiryIdx := idx + r.cfg.LimitOrderExpiryCandles
		if expiryIdx > len(lower)-1 {
			expiryIdx = len(lower) - 1
		}
		g.PendingSetupExpiry = lower[expiryIdx].Date

		r.state = AwaitingFill
		trade := r.sim.Simulate(order, lower, idx)
		r.trades = append(r.trades, trade)

		if trade.ExitReason == shared.Expired {
			r.stats.Expiries++
			r.state = Idle
			continue
		}

		r.stats.Fills++
		r.state = InPosition
		r.balance += trade.PNL
		r.pool.MarkTraded(g)
		r.state = Idle

		r.cfg.Logger.Debug().Msgf("%s trade on gap %s: entry %.2f exit %.2f (%s) pnl %.2f",
			trade.Direction, g.ID, trade.EntryPrice, trade.ExitPrice, trade.ExitReason.String(), trade.PNL)

		return indexAtOrAfter(lower, idx, trade.ExitTime), nil
	}

	return idx, nil
}

// createOrder derives an order from a resolved gap at the lower timeframe candle
// idx, or nil when no valid setup exists. A nil result is the common, expected
// outcome: missing lower timeframe confirmation, out of bounds stop distance,
// insufficient risk reward or sub minimum notional all abort quietly.
func (r *Run) createOrder(g *gap.Gap, lower []shared.Candlestick, idx int) *Order {
	direction := g.TradeDirection(r.cfg.StrategyMode)
	stop := g.StopLoss(r.cfg.StrategyMode)

	var entry float64
	switch r.cfg.EntryMethod {
	case shared.ImmediateClose:
		entry = g.ResolutionPrice

	case shared.LowerTimeframeGap:
		confirmation := r.matchingLowerGap(g, lower, idx)
		if confirmation == nil {
			return nil
		}
		if direction == shared.Long {
			entry = confirmation.Bottom
		} else {
			entry = confirmation.Top
		}

	case shared.Breakout:
		if direction == shared.Long {
			entry = g.ResolutionPrice * (1 + breakoutBuffer)
		} else {
			entry = g.ResolutionPrice * (1 - breakoutBuffer)
		}
	}

	if entry <= 0 {
		return nil
	}

	// A stop on the wrong side of the entry is degenerate.
	if (direction == shared.Long && stop >= entry) || (direction == shared.Short && stop <= entry) {
		return nil
	}

	stopPct := abs(entry-stop) / entry * 100
	if stopPct < r.cfg.MinStopLossPct || stopPct > r.cfg.MaxStopLossPct {
		return nil
	}

	levels, finalTarget := r.takeProfitLevels(lower, idx, entry, stop, direction)
	if levels == nil {
		return nil
	}

	rr := abs(finalTarget-entry) / abs(entry-stop)
	if rr < r.cfg.MinRiskReward {
		return nil
	}

	size := positionSize(r.balance, r.cfg.RiskPerTrade, entry, stop)
	if size <= 0 || size*entry < minNotional {
		return nil
	}

	return NewOrder(g.ID, r.cfg.Market, direction, r.cfg.EntryMethod, entry, stop,
		levels, size, lower[idx].Date, r.cfg.LimitOrderExpiryCandles)
}

// matchingLowerGap detects a fresh lower timeframe gap confirming the setup:
// rejection setups require the opposite polarity, continuation setups the same.
func (r *Run) matchingLowerGap(g *gap.Gap, lower []shared.Candlestick, idx int) *gap.Gap {
	candidates := gap.Detect(lower, idx-detectLookback, idx+1)
	if len(candidates) == 0 {
		return nil
	}

	expected := g.Sentiment
	if r.cfg.StrategyMode == shared.FailedGap {
		if g.Sentiment == shared.Bullish {
			expected = shared.Bearish
		} else {
			expected = shared.Bullish
		}
	}

	var match *gap.Gap
	for _, candidate := range candidates {
		if candidate.Sentiment == expected {
			match = candidate
		}
	}

	return match
}

// takeProfitLevels builds the exit ladder. With the ladder disabled a single
// level closes the full position at the configured target; enabled, three rungs
// at fixed risk multiples close staggered fractions. Returns nil when no valid
// target exists.
func (r *Run) takeProfitLevels(lower []shared.Candlestick, idx int, entry float64,
	stop float64, direction shared.Direction) ([]TakeProfitLevel, float64) {
	risk := abs(entry - stop)

	if r.cfg.LadderEnabled {
		levels := make([]TakeProfitLevel, 0, len(ladderRiskMultiples))
		for i, multiple := range ladderRiskMultiples {
			price := entry + risk*multiple
			if direction == shared.Short {
				price = entry - risk*multiple
			}
			if price <= 0 {
				return nil, 0
			}
			levels = append(levels, TakeProfitLevel{Price: price, Fraction: ladderFractions[i]})
		}
		return levels, levels[len(levels)-1].Price
	}

	target := takeProfit(lower, idx, entry, stop, direction,
		r.cfg.TakeProfitMethod, r.cfg.FixedRiskReward, r.cfg.LiquidityLookback)
	if target <= 0 {
		return nil, 0
	}

	return []TakeProfitLevel{{Price: target, Fraction: 1}}, target
}

// indexAtOrAfter returns the first candle index at or after the provided time.
func indexAtOrAfter(candles []shared.Candlestick, from int, ts time.Time) int {
	for i := from; i < len(candles); i++ {
		if !candles[i].Date.Before(ts) {
			return i
		}
	}

	return len(candles)
}
