package service

import (
	"errors"
	"fmt"
	"os"

	"github.com/illiachumak/bot-liquiditysweep-sub000/backtest"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Default strategy profile values, applied before unmarshalling so a partial
// profile only overrides what it names.
const (
	defaultInitialBalance      = 10000.0
	defaultRiskPerTrade        = 0.02
	defaultMinRiskReward       = 2.0
	defaultMinStopLossPct      = 0.3
	defaultMaxStopLossPct      = 5.0
	defaultLimitExpiryCandles  = 16
	defaultMakerFeeRate        = 0.00018
	defaultTakerFeeRate        = 0.00045
	defaultLiquidityLookback   = 50
	defaultStrategyMode        = "failed"
	defaultEntryMethod         = "immediate_close"
	defaultTakeProfitMethod    = "liquidity"
	defaultFixedRiskReward     = 2.0
	defaultProfileMaxHoldCount = 500
)

// Profile represents a strategy profile loaded from a yaml file.
type Profile struct {
	// InitialBalance is the starting account balance.
	InitialBalance float64 `yaml:"initial_balance"`
	// RiskPerTrade is the balance fraction risked per trade.
	RiskPerTrade float64 `yaml:"risk_per_trade"`
	// MinRiskReward rejects setups below this risk reward ratio.
	MinRiskReward float64 `yaml:"min_risk_reward"`
	// MinStopLossPct rejects stops tighter than this percentage.
	MinStopLossPct float64 `yaml:"min_stop_loss_pct"`
	// MaxStopLossPct rejects stops wider than this percentage.
	MaxStopLossPct float64 `yaml:"max_stop_loss_pct"`
	// LimitOrderExpiryCandles bounds how long a limit order rests unfilled.
	LimitOrderExpiryCandles int `yaml:"limit_order_expiry_candles"`
	// MakerFeeRate is the resting limit order fee rate.
	MakerFeeRate float64 `yaml:"maker_fee_rate"`
	// TakerFeeRate is the market order fee rate.
	TakerFeeRate float64 `yaml:"taker_fee_rate"`
	// FeesEnabled toggles fee modelling.
	FeesEnabled bool `yaml:"fees_enabled"`
	// StrategyMode selects rejection ("failed") or continuation ("held") trading.
	StrategyMode string `yaml:"strategy_mode"`
	// EntryMethod selects how entries are derived from resolved gaps.
	EntryMethod string `yaml:"entry_method"`
	// TakeProfitMethod selects how targets are derived.
	TakeProfitMethod string `yaml:"take_profit_method"`
	// FixedRiskReward is the target multiple for the fixed RR method.
	FixedRiskReward float64 `yaml:"fixed_risk_reward"`
	// LiquidityLookback is the trailing window for liquidity targeting.
	LiquidityLookback int `yaml:"liquidity_lookback"`
	// LadderEnabled splits exits across a three level take profit ladder.
	LadderEnabled bool `yaml:"ladder_enabled"`
	// MaxHoldCandles bounds the exit resolution horizon.
	MaxHoldCandles int `yaml:"max_hold_candles"`
}

// DefaultProfile returns a profile populated with the default strategy values.
func DefaultProfile() *Profile {
	return &Profile{
		InitialBalance:          defaultInitialBalance,
		RiskPerTrade:            defaultRiskPerTrade,
		MinRiskReward:           defaultMinRiskReward,
		MinStopLossPct:          defaultMinStopLossPct,
		MaxStopLossPct:          defaultMaxStopLossPct,
		LimitOrderExpiryCandles: defaultLimitExpiryCandles,
		MakerFeeRate:            defaultMakerFeeRate,
		TakerFeeRate:            defaultTakerFeeRate,
		FeesEnabled:             true,
		StrategyMode:            defaultStrategyMode,
		EntryMethod:             defaultEntryMethod,
		TakeProfitMethod:        defaultTakeProfitMethod,
		FixedRiskReward:         defaultFixedRiskReward,
		LiquidityLookback:       defaultLiquidityLookback,
		LadderEnabled:           false,
		MaxHoldCandles:          defaultProfileMaxHoldCount,
	}
}

// LoadProfile loads a strategy profile from the provided yaml file. An empty
// path yields the default profile.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy profile '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parsing strategy profile '%s': %w", path, err)
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("validating strategy profile '%s': %w", path, err)
	}

	return profile, nil
}

// Validate asserts the profile has sane inputs.
func (p *Profile) Validate() error {
	var errs error

	if p.InitialBalance <= 0 {
		errs = errors.Join(errs, fmt.Errorf("initial balance must be positive, got %f", p.InitialBalance))
	}
	if p.RiskPerTrade <= 0 || p.RiskPerTrade >= 1 {
		errs = errors.Join(errs, fmt.Errorf("risk per trade must be a fraction in (0, 1), got %f", p.RiskPerTrade))
	}
	if p.MinRiskReward <= 0 {
		errs = errors.Join(errs, fmt.Errorf("minimum risk reward must be positive, got %f", p.MinRiskReward))
	}
	if p.MinStopLossPct < 0 || p.MaxStopLossPct <= p.MinStopLossPct {
		errs = errors.Join(errs, fmt.Errorf("stop loss bounds are incoherent: [%f, %f]",
			p.MinStopLossPct, p.MaxStopLossPct))
	}
	if p.LimitOrderExpiryCandles <= 0 {
		errs = errors.Join(errs, fmt.Errorf("limit order expiry must be positive, got %d", p.LimitOrderExpiryCandles))
	}
	if p.MakerFeeRate < 0 || p.TakerFeeRate < 0 {
		errs = errors.Join(errs, fmt.Errorf("fee rates cannot be negative"))
	}
	if p.LiquidityLookback <= 0 {
		errs = errors.Join(errs, fmt.Errorf("liquidity lookback must be positive, got %d", p.LiquidityLookback))
	}
	if _, err := shared.ParseStrategyMode(p.StrategyMode); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := shared.ParseEntryMethod(p.EntryMethod); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := shared.ParseTakeProfitMethod(p.TakeProfitMethod); err != nil {
		errs = errors.Join(errs, err)
	}

	return errs
}

// RunConfig converts the profile into a simulation run configuration for the
// provided market.
func (p *Profile) RunConfig(market string, logger *zerolog.Logger) (*backtest.Config, error) {
	mode, err := shared.ParseStrategyMode(p.StrategyMode)
	if err != nil {
		return nil, err
	}
	entry, err := shared.ParseEntryMethod(p.EntryMethod)
	if err != nil {
		return nil, err
	}
	takeProfit, err := shared.ParseTakeProfitMethod(p.TakeProfitMethod)
	if err != nil {
		return nil, err
	}

	return &backtest.Config{
		Market:                  market,
		InitialBalance:          p.InitialBalance,
		RiskPerTrade:            p.RiskPerTrade,
		MinRiskReward:           p.MinRiskReward,
		MinStopLossPct:          p.MinStopLossPct,
		MaxStopLossPct:          p.MaxStopLossPct,
		LimitOrderExpiryCandles: p.LimitOrderExpiryCandles,
		MakerFeeRate:            p.MakerFeeRate,
		TakerFeeRate:            p.TakerFeeRate,
		FeesEnabled:             p.FeesEnabled,
		StrategyMode:            mode,
		EntryMethod:             entry,
		TakeProfitMethod:        takeProfit,
		FixedRiskReward:         p.FixedRiskReward,
		LiquidityLookback:       p.LiquidityLookback,
		LadderEnabled:           p.LadderEnabled,
		MaxHoldCandles:          p.MaxHoldCandles,
		Logger:                  logger,
	}, nil
}
