// Package backtest implements the dual timeframe gap simulation engine: setup
// creation from resolved gaps, order fill/exit resolution and the chronological
// control loop that binds the two candle series together without lookahead bias.
package backtest

import (
	"errors"
	"fmt"

	"github.com/illiachumak/bot-liquiditysweep-sub000/gap"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
)

// ErrLookaheadBias marks a fatal simulation invariant violation: an action was
// attempted before the information justifying it became available. Unlike the
// ordinary no-setup outcomes this aborts the run, since it indicates an
// implementation bug rather than a market outcome.
var ErrLookaheadBias = errors.New("lookahead bias detected")

// State represents the run wide trading state.
type State int

const (
	// Idle means no order or position is live; setup search is permitted.
	Idle State = iota
	// AwaitingFill means a limit order is resting.
	AwaitingFill
	// InPosition means an order has filled and awaits an exit.
	InPosition
)

// String stringifies the provided state.
func (s *State) String() string {
	switch *s {
	case Idle:
		return "idle"
	case AwaitingFill:
		return "awaiting fill"
	case InPosition:
		return "in position"
	default:
		return "unknown"
	}
}

// Config represents a simulation run configuration.
type Config struct {
	// Market is the simulated market.
	Market string
	// InitialBalance is the starting account balance.
	InitialBalance float64
	// RiskPerTrade is the balance fraction risked per trade.
	RiskPerTrade float64
	// MinRiskReward rejects setups below this risk reward ratio.
	MinRiskReward float64
	// MinStopLossPct rejects noise prone stops tighter than this percentage.
	MinStopLossPct float64
	// MaxStopLossPct rejects stops wider than this percentage.
	MaxStopLossPct float64
	// LimitOrderExpiryCandles bounds how long a limit order rests unfilled.
	LimitOrderExpiryCandles int
	// MakerFeeRate is the resting limit order fee rate.
	MakerFeeRate float64
	// TakerFeeRate is the market order fee rate.
	TakerFeeRate float64
	// FeesEnabled toggles fee modelling.
	FeesEnabled bool
	// StrategyMode selects rejection or continuation trading.
	StrategyMode shared.StrategyMode
	// EntryMethod selects how entries are derived from resolved gaps.
	EntryMethod shared.EntryMethod
	// TakeProfitMethod selects how targets are derived.
	TakeProfitMethod shared.TakeProfitMethod
	// FixedRiskReward is the target multiple for the fixed RR method.
	FixedRiskReward float64
	// LiquidityLookback is the trailing window for liquidity targeting.
	LiquidityLookback int
	// LadderEnabled splits exits across a three level take profit ladder.
	LadderEnabled bool
	// MaxHoldCandles bounds the exit resolution horizon.
	MaxHoldCandles int
	// Logger represents the run logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.InitialBalance <= 0 {
		errs = errors.Join(errs, fmt.Errorf("initial balance must be positive, got %f", cfg.InitialBalance))
	}
	if cfg.RiskPerTrade <= 0 || cfg.RiskPerTrade >= 1 {
		errs = errors.Join(errs, fmt.Errorf("risk per trade must be a fraction in (0, 1), got %f", cfg.RiskPerTrade))
	}
	if cfg.MinRiskReward <= 0 {
		errs = errors.Join(errs, fmt.Errorf("minimum risk reward must be positive, got %f", cfg.MinRiskReward))
	}
	if cfg.MinStopLossPct < 0 || cfg.MaxStopLossPct <= cfg.MinStopLossPct {
		errs = errors.Join(errs, fmt.Errorf("stop loss bounds are incoherent: [%f, %f]",
			cfg.MinStopLossPct, cfg.MaxStopLossPct))
	}
	if cfg.LimitOrderExpiryCandles <= 0 {
		errs = errors.Join(errs, fmt.Errorf("limit order expiry must be positive, got %d", cfg.LimitOrderExpiryCandles))
	}
	if cfg.MakerFeeRate < 0 || cfg.TakerFeeRate < 0 {
		errs = errors.Join(errs, fmt.Errorf("fee rates cannot be negative"))
	}
	if cfg.TakeProfitMethod == shared.FixedRR && cfg.FixedRiskReward <= 0 {
		errs = errors.Join(errs, fmt.Errorf("fixed risk reward must be positive, got %f", cfg.FixedRiskReward))
	}
	if cfg.LiquidityLookback <= 0 {
		errs = errors.Join(errs, fmt.Errorf("liquidity lookback must be positive, got %d", cfg.LiquidityLookback))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Stats tracks run wide counters.
type Stats struct {
	GapsDetected  int `json:"gaps_detected"`
	GapsResolved  int `json:"gaps_resolved"`
	SetupsCreated int `json:"setups_created"`
	Fills         int `json:"fills"`
	Expiries      int `json:"expiries"`
}

// Run owns all mutable state of one simulation: the gap pool, the trading state
// machine, the balance and the trade log. Runs are fully isolated from one
// another, so independent configurations can execute in parallel.
type Run struct {
	cfg     *Config
	pool    *gap.Pool
	sim     *Simulator
	state   State
	balance float64
	trades  []*Trade
	stats   Stats
}

// NewRun initializes a new simulation run.
func NewRun(cfg *Config) (*Run, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating run config: %w", err)
	}

	sim := NewSimulator(&SimulatorConfig{
		MakerFeeRate:   cfg.MakerFeeRate,
		TakerFeeRate:   cfg.TakerFeeRate,
		FeesEnabled:    cfg.FeesEnabled,
		MaxHoldCandles: cfg.MaxHoldCandles,
	})

	return &Run{
		cfg:     cfg,
		pool:    gap.NewPool(),
		sim:     sim,
		state:   Idle,
		balance: cfg.InitialBalance,
		trades:  []*Trade{},
	}, nil
}

// Balance returns the current simulated balance.
func (r *Run) Balance() float64 {
	return r.balance
}

// Trades returns the completed trade log in chronological order.
func (r *Run) Trades() []*Trade {
	return r.trades
}

// Stats returns the run counters.
func (r *Run) Stats() Stats {
	return r.stats
}

// State returns the current trading state.
func (r *Run) State() State {
	return r.state
}
