package backtest

import (
	"time"

	"github.com/google/uuid"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

const (
	// defaultMaxHoldCandles is the forward horizon for exit resolution.
	defaultMaxHoldCandles = 500
	// sizeEpsilon treats residual ladder dust as fully closed.
	sizeEpsilon = 1e-9
)

// SimulatorConfig represents the order simulator configuration.
type SimulatorConfig struct {
	// MakerFeeRate is the fee rate paid by resting limit orders.
	MakerFeeRate float64
	// TakerFeeRate is the fee rate paid by immediately matching orders.
	TakerFeeRate float64
	// FeesEnabled toggles fee modelling.
	FeesEnabled bool
	// MaxHoldCandles bounds the exit resolution horizon.
	MaxHoldCandles int
}

// Simulator resolves orders against forward candles: fill, partial exits, stop,
// target or timeout.
type Simulator struct {
	cfg *SimulatorConfig
}

// NewSimulator initializes a new order simulator.
func NewSimulator(cfg *SimulatorConfig) *Simulator {
	if cfg.MaxHoldCandles <= 0 {
		cfg.MaxHoldCandles = defaultMaxHoldCandles
	}

	return &Simulator{cfg: cfg}
}

// fee computes the fee for a close of the provided size at the provided price.
func (s *Simulator) fee(price float64, size float64, rate float64) float64 {
	if !s.cfg.FeesEnabled {
		return 0
	}
	return price * size * rate
}

// grossPNL computes the gross profit of closing size at exit against the entry.
func grossPNL(direction shared.Direction, entry float64, exit float64, size float64) float64 {
	if direction == shared.Long {
		return (exit - entry) * size
	}
	return (entry - exit) * size
}

// ratchetStop moves a stop without ever worsening it for the position.
func ratchetStop(direction shared.Direction, current float64, proposed float64) float64 {
	if direction == shared.Long {
		if proposed > current {
			return proposed
		}
		return current
	}
	if proposed < current {
		return proposed
	}
	return current
}

// Simulate resolves the provided order against candles starting at entryIdx.
// Phase one scans for a limit fill within the order's expiry window (market
// entries fill immediately); phase two scans forward for stop, targets or
// timeout. The stop is checked before any target within each candle: with only
// OHLC data the intrabar path is unknowable, so ties resolve conservatively.
func (s *Simulator) Simulate(order *Order, candles []shared.Candlestick, entryIdx int) *Trade {
	entry := order.LimitPrice
	entryTime := candles[entryIdx].Date
	startIdx := entryIdx

	if order.EntryMethod != shared.ImmediateClose {
		filled := false
		limit := entryIdx + order.ExpiryCandles
		if limit > len(candles) {
			limit = len(candles)
		}

		for i := entryIdx; i < limit; i++ {
			switch order.Direction {
			case shared.Long:
				if candles[i].Low <= entry {
					filled = true
				}
			case shared.Short:
				if candles[i].High >= entry {
					filled = true
				}
			}

			if filled {
				entryTime = candles[i].Date
				startIdx = i + 1
				break
			}
		}

		if !filled {
			// An unfilled limit order is a normal terminal state, fee free.
			return &Trade{
				ID:         uuid.New().String(),
				GapID:      order.GapID,
				Market:     order.Market,
				Direction:  order.Direction.String(),
				EntryPrice: entry,
				EntryTime:  order.CreatedTime,
				ExitPrice:  entry,
				ExitTime:   candles[limit-1].Date,
				ExitReason: shared.Expired,
				Size:       order.Size,
				Risk:       order.Risk(),
			}
		}
	}

	entryFeeRate := s.cfg.MakerFeeRate
	if order.EntryMethod == shared.ImmediateClose {
		entryFeeRate = s.cfg.TakerFeeRate
	}
	entryFee := s.fee(entry, order.Size, entryFeeRate)

	stop := order.StopLoss
	remaining := order.Size
	hit := make([]bool, len(order.TakeProfits))

	var gross, exitFees float64
	var exitPrice float64
	var exitTime time.Time
	var exitReason shared.ExitReason
	closed := false

	horizon := startIdx + s.cfg.MaxHoldCandles
	if horizon > len(candles) {
		horizon = len(candles)
	}

	for i := startIdx; i < horizon && !closed; i++ {
		candle := &candles[i]

		stopHit := (order.Direction == shared.Long && candle.Low <= stop) ||
			(order.Direction == shared.Short && candle.High >= stop)
		if stopHit {
			gross += grossPNL(order.Direction, entry, stop, remaining)
			exitFees += s.fee(stop, remaining, s.cfg.TakerFeeRate)
			remaining = 0
			exitPrice = stop
			exitTime = candle.Date
			exitReason = shared.StopLoss
			closed = true
			break
		}

		for j := range order.TakeProfits {
			if hit[j] {
				continue
			}

			level := order.TakeProfits[j]
			levelHit := (order.Direction == shared.Long && candle.High >= level.Price) ||
				(order.Direction == shared.Short && candle.Low <= level.Price)
			if !levelHit {
				continue
			}

			closeSize := order.Size * level.Fraction
			if closeSize > remaining {
				closeSize = remaining
			}

			gross += grossPNL(order.Direction, entry, level.Price, closeSize)
			exitFees += s.fee(level.Price, closeSize, s.cfg.MakerFeeRate)
			remaining -= closeSize
			hit[j] = true
			exitPrice = level.Price
			exitTime = candle.Date

			// Ratchet the stop: breakeven after the first level, first level
			// price after the second. The stop never moves adversely.
			switch j {
			case 0:
				stop = ratchetStop(order.Direction, stop, entry)
			case 1:
				stop = ratchetStop(order.Direction, stop, order.TakeProfits[0].Price)
			}
		}

		if remaining <= sizeEpsilon {
			exitReason = shared.TakeProfit
			closed = true
		}
	}

	if !closed {
		last := &candles[horizon-1]
		gross += grossPNL(order.Direction, entry, last.Close, remaining)
		exitFees += s.fee(last.Close, remaining, s.cfg.TakerFeeRate)
		exitPrice = last.Close
		exitTime = last.Date
		exitReason = shared.Timeout
	}

	fees := entryFee + exitFees
	net := gross - fees

	return &Trade{
		ID:         uuid.New().String(),
		GapID:      order.GapID,
		Market:     order.Market,
		Direction:  order.Direction.String(),
		EntryPrice: entry,
		EntryTime:  entryTime,
		ExitPrice:  exitPrice,
		ExitTime:   exitTime,
		ExitReason: exitReason,
		Size:       order.Size,
		PNL:        net,
		PNLPercent: (net / (entry * order.Size)) * 100,
		Fees:       fees,
		Risk:       order.Risk(),
	}
}
