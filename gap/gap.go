// Package gap tracks fair value gaps (three candle price imbalances) through their
// lifecycle: formation, entry, resolution (rejection or hold) and invalidation.
package gap

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

const (
	// stopLossBufferAbove pads a stop placed above recorded excursions.
	stopLossBufferAbove = 1.002
	// stopLossBufferBelow pads a stop placed below recorded excursions.
	stopLossBufferBelow = 0.998
)

// Gap represents a fair value gap and its mutable lifecycle state. These act as high
// probability reaction zones for price.
type Gap struct {
	ID        string
	Market    string
	Timeframe shared.Timeframe
	Sentiment shared.Sentiment
	Top       float64
	Bottom    float64
	// FormedTime is the close time of the third candle of the pattern. The gap's
	// existence is only knowable from this instant onward.
	FormedTime time.Time

	// Lifecycle state. Entered, Resolved and Invalidated are sticky: once set they
	// never revert.
	Entered     bool
	Resolved    bool
	Invalidated bool

	ResolutionTime  time.Time
	ResolutionPrice float64
	// ResolutionAvailableTime is the close time of the resolving candle. No trading
	// decision may consult the resolution before this instant.
	ResolutionAvailableTime time.Time

	// Price excursions of candles that touched the band, used for stop placement.
	HighsInside []float64
	LowsInside  []float64

	HasFilledTrade     bool
	PendingSetupExpiry time.Time
}

// NewGap initializes a new gap.
func NewGap(market string, timeframe shared.Timeframe, sentiment shared.Sentiment,
	top float64, bottom float64, formedTime time.Time) (*Gap, error) {
	if top <= bottom {
		return nil, fmt.Errorf("gap top (%f) must exceed bottom (%f)", top, bottom)
	}
	if sentiment != shared.Bullish && sentiment != shared.Bearish {
		return nil, fmt.Errorf("gap sentiment must be bullish or bearish, got %s", sentiment.String())
	}

	return &Gap{
		ID:         uuid.New().String(),
		Market:     market,
		Timeframe:  timeframe,
		Sentiment:  sentiment,
		Top:        top,
		Bottom:     bottom,
		FormedTime: formedTime,
	}, nil
}

// Inside checks whether the provided price is inside the gap band.
func (g *Gap) Inside(price float64) bool {
	return price >= g.Bottom && price <= g.Top
}

// Touched checks whether the provided candle range interacted with the gap band.
func (g *Gap) Touched(candle *shared.Candlestick) bool {
	return !(candle.High < g.Bottom || candle.Low > g.Top)
}

// FullyPassed checks whether the provided intrabar extremes structurally destroy
// the gap: a bullish gap is broken below its bottom, a bearish gap above its top.
func (g *Gap) FullyPassed(high float64, low float64) bool {
	if g.Sentiment == shared.Bullish {
		return low < g.Bottom
	}
	return high > g.Top
}

// OnCooldown checks whether the gap is still cooling down from an expired setup.
func (g *Gap) OnCooldown(now time.Time) bool {
	return !g.PendingSetupExpiry.IsZero() && now.Before(g.PendingSetupExpiry)
}

// Transition describes the lifecycle changes produced by a single candle update.
type Transition struct {
	NewlyResolved bool
	Invalidated   bool
}

// Update advances the gap state using the provided closed candle. The resolution
// check uses the candle close while the invalidation check uses intrabar extremes,
// and resolution is evaluated first. A resolved gap is exempt from invalidation
// here: a rejection close necessarily wicks through the band boundary it rejected,
// so checking both against the same candle would destroy every rejection the
// instant it forms. Resolved gaps are instead invalidated against the lower
// timeframe candles when setups are evaluated.
func (g *Gap) Update(candle *shared.Candlestick, closeTime time.Time, mode shared.StrategyMode) Transition {
	var transition Transition

	if g.Invalidated {
		return transition
	}

	if g.Touched(candle) {
		if !g.Entered {
			g.Entered = true
		}

		if candle.High >= g.Bottom {
			g.HighsInside = append(g.HighsInside, candle.High)
		}
		if candle.Low <= g.Top {
			g.LowsInside = append(g.LowsInside, candle.Low)
		}

		if !g.Resolved && g.resolutionMet(candle.Close, mode) {
			g.Resolved = true
			g.ResolutionTime = candle.Date
			g.ResolutionPrice = candle.Close
			g.ResolutionAvailableTime = closeTime
			transition.NewlyResolved = true
		}
	}

	// Invalidation runs on every update, touch or not: a candle can gap straight
	// through the band without ever trading inside it.
	if !g.Resolved && g.FullyPassed(candle.High, candle.Low) {
		g.Invalidated = true
		transition.Invalidated = true
	}

	return transition
}

// resolutionMet checks the mode specific resolution condition against a close price.
func (g *Gap) resolutionMet(close float64, mode shared.StrategyMode) bool {
	if !g.Entered {
		return false
	}

	switch mode {
	case shared.FailedGap:
		// Rejection: price entered the band and closed back outside it, against
		// the gap's polarity.
		if g.Sentiment == shared.Bullish {
			return close < g.Bottom
		}
		return close > g.Top
	case shared.HeldGap:
		// Continuation: price entered the band and closed inside it.
		return g.Inside(close)
	default:
		return false
	}
}

// TradeDirection returns the trade direction a resolved gap implies for the
// provided strategy mode.
func (g *Gap) TradeDirection(mode shared.StrategyMode) shared.Direction {
	switch mode {
	case shared.FailedGap:
		// Rejections trade against the gap's polarity.
		if g.Sentiment == shared.Bullish {
			return shared.Short
		}
		return shared.Long
	default:
		// Holds trade with the gap's polarity.
		if g.Sentiment == shared.Bullish {
			return shared.Long
		}
		return shared.Short
	}
}

// StopLoss derives a stop loss from the worst excursion recorded inside the band,
// padded by a small buffer. With no recorded excursions the band edge is used.
func (g *Gap) StopLoss(mode shared.StrategyMode) float64 {
	direction := g.TradeDirection(mode)

	switch direction {
	case shared.Short:
		if len(g.HighsInside) > 0 {
			return maxOf(g.HighsInside) * stopLossBufferAbove
		}
		return g.Top * stopLossBufferAbove
	default:
		if len(g.LowsInside) > 0 {
			return minOf(g.LowsInside) * stopLossBufferBelow
		}
		return g.Bottom * stopLossBufferBelow
	}
}

func maxOf(values []float64) float64 {
	max := values[0]
	for idx := 1; idx < len(values); idx++ {
		if values[idx] > max {
			max = values[idx]
		}
	}
	return max
}

func minOf(values []float64) float64 {
	min := values[0]
	for idx := 1; idx < len(values); idx++ {
		if values[idx] < min {
			min = values[idx]
		}
	}
	return min
}
