package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func TestLoadProfileDefaults(t *testing.T) {
	// Ensure an empty path yields the default profile.
	profile, err := LoadProfile("")
	assert.NoError(t, err)
	assert.Equal(t, profile.InitialBalance, float64(10000))
	assert.Equal(t, profile.RiskPerTrade, 0.02)
	assert.Equal(t, profile.StrategyMode, "failed")
	assert.Equal(t, profile.EntryMethod, "immediate_close")
	assert.Equal(t, profile.TakeProfitMethod, "liquidity")
	assert.Equal(t, profile.FeesEnabled, true)
	assert.NoError(t, profile.Validate())
}

func TestLoadProfileOverrides(t *testing.T) {
	content := `
initial_balance: 5000
risk_per_trade: 0.01
strategy_mode: held
entry_method: breakout
take_profit_method: fixed_rr
fixed_risk_reward: 3
ladder_enabled: true
`
	path := filepath.Join(t.TempDir(), "profile.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// Ensure a partial profile overrides only what it names.
	profile, err := LoadProfile(path)
	assert.NoError(t, err)
	assert.Equal(t, profile.InitialBalance, float64(5000))
	assert.Equal(t, profile.RiskPerTrade, 0.01)
	assert.Equal(t, profile.StrategyMode, "held")
	assert.Equal(t, profile.EntryMethod, "breakout")
	assert.Equal(t, profile.TakeProfitMethod, "fixed_rr")
	assert.Equal(t, profile.FixedRiskReward, float64(3))
	assert.True(t, profile.LadderEnabled)

	// Defaults survive for unnamed fields.
	assert.Equal(t, profile.MinRiskReward, float64(2))
	assert.Equal(t, profile.LimitOrderExpiryCandles, 16)
	assert.Equal(t, profile.MakerFeeRate, 0.00018)
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown strategy mode",
			content: "strategy_mode: scalping\n",
		},
		{
			name:    "negative balance",
			content: "initial_balance: -100\n",
		},
		{
			name:    "risk out of range",
			content: "risk_per_trade: 2\n",
		},
		{
			name:    "incoherent stop bounds",
			content: "min_stop_loss_pct: 5\nmax_stop_loss_pct: 1\n",
		},
		{
			name:    "malformed yaml",
			content: "initial_balance: [\n",
		},
	}

	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "profile.yaml")
		assert.NoError(t, os.WriteFile(path, []byte(test.content), 0o644))

		_, err := LoadProfile(path)
		if err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}
}

func TestProfileRunConfig(t *testing.T) {
	logger := log.With().Str("component", "run").Logger()

	profile := DefaultProfile()
	cfg, err := profile.RunConfig("BTCUSDT", &logger)
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.Market, "BTCUSDT")
	assert.Equal(t, cfg.StrategyMode, shared.FailedGap)
	assert.Equal(t, cfg.EntryMethod, shared.ImmediateClose)
	assert.Equal(t, cfg.TakeProfitMethod, shared.Liquidity)
	assert.Equal(t, cfg.InitialBalance, profile.InitialBalance)
	assert.Equal(t, cfg.LimitOrderExpiryCandles, profile.LimitOrderExpiryCandles)
}

func TestBacktestConfigValidate(t *testing.T) {
	cancel := func() {}

	// File based configuration requires both data paths.
	cfg := &BacktestConfig{Market: "BTCUSDT", Cancel: cancel}
	assert.Error(t, cfg.Validate())

	cfg.HigherTimeframeDataPath = "4h.json"
	cfg.LowerTimeframeDataPath = "15m.json"
	assert.NoError(t, cfg.Validate())

	// A clickhouse address substitutes for the data paths.
	warehouse := &BacktestConfig{Market: "BTCUSDT", ClickHouseAddr: "localhost:9000", Cancel: cancel}
	assert.NoError(t, warehouse.Validate())

	// Market and cancellation are always required.
	assert.Error(t, (&BacktestConfig{Cancel: cancel, ClickHouseAddr: "localhost:9000"}).Validate())
	assert.Error(t, (&BacktestConfig{Market: "BTCUSDT", ClickHouseAddr: "localhost:9000"}).Validate())
}
