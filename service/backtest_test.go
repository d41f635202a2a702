package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

// writeCandleFile renders OHLC rows as the json candle format starting at the
// provided instant.
func writeCandleFile(t *testing.T, dir string, name string, start time.Time,
	step time.Duration, ohlc [][4]float64) string {
	t.Helper()

	rows := make([]map[string]any, 0, len(ohlc))
	for idx, fields := range ohlc {
		rows = append(rows, map[string]any{
			"date":   start.Add(time.Duration(idx) * step).Format("2006-01-02 15:04:05"),
			"open":   fields[0],
			"high":   fields[1],
			"low":    fields[2],
			"close":  fields[3],
			"volume": 1,
		})
	}

	data, err := json.Marshal(rows)
	assert.NoError(t, err)

	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func TestBacktestServiceRun(t *testing.T) {
	dir := t.TempDir()

	// A 4H bullish gap (band 100-110) is entered and rejected; the 15m series
	// retraces above the band after the rejection becomes known and then spikes
	// through the stop.
	higherPath := writeCandleFile(t, dir, "4h.json",
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Hour*4, [][4]float64{
			{95, 100, 90, 98},
			{98, 105, 95, 104},
			{112, 115, 110, 114},
			{114, 116, 104, 106},
			{106, 108, 96, 98},
			{98, 103, 97, 101},
			{101, 104, 99, 103},
		})

	lowerPath := writeCandleFile(t, dir, "15m.json",
		time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), time.Minute*15, [][4]float64{
			{101, 103, 100, 102},
			{102, 117, 101, 116},
			{116, 118, 114, 115},
			{115, 116, 113, 114},
		})

	profile := `
min_risk_reward: 1.5
min_stop_loss_pct: 0.1
max_stop_loss_pct: 30
take_profit_method: fixed_rr
fixed_risk_reward: 2
fees_enabled: false
`
	profilePath := filepath.Join(dir, "profile.yaml")
	assert.NoError(t, os.WriteFile(profilePath, []byte(profile), 0o644))

	outputPath := filepath.Join(dir, "result.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backtest, err := NewBacktest(&BacktestConfig{
		Market:                  "BTCUSDT",
		HigherTimeframeDataPath: higherPath,
		LowerTimeframeDataPath:  lowerPath,
		ProfilePath:             profilePath,
		OutputPath:              outputPath,
		Cancel:                  cancel,
	})
	assert.NoError(t, err)
	assert.NoError(t, backtest.Run(ctx))

	// Ensure the run result was written and carries the rejection trade.
	data, err := os.ReadFile(outputPath)
	assert.NoError(t, err)

	var result struct {
		Market string `json:"market"`
		Mode   string `json:"strategy_mode"`
		Trades []struct {
			Direction  string  `json:"direction"`
			EntryPrice float64 `json:"entry_price"`
			ExitReason string  `json:"exit_reason"`
		} `json:"trades"`
	}
	assert.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, result.Market, "BTCUSDT")
	assert.Equal(t, result.Mode, "failed")
	assert.Equal(t, len(result.Trades), 1)
	assert.Equal(t, result.Trades[0].Direction, "short")
	assert.Equal(t, result.Trades[0].EntryPrice, float64(98))
	assert.Equal(t, result.Trades[0].ExitReason, "STOP_LOSS")
}

func TestBacktestServiceRejectsBadInputs(t *testing.T) {
	cancel := func() {}

	// Ensure a missing profile file fails construction.
	_, err := NewBacktest(&BacktestConfig{
		Market:                  "BTCUSDT",
		HigherTimeframeDataPath: "/tmp/4h.json",
		LowerTimeframeDataPath:  "/tmp/15m.json",
		ProfilePath:             filepath.Join(os.TempDir(), fmt.Sprintf("absent-%d.yaml", time.Now().UnixNano())),
		Cancel:                  cancel,
	})
	assert.Error(t, err)

	// Ensure missing candle data fails the run.
	ctx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	backtest, err := NewBacktest(&BacktestConfig{
		Market:                  "BTCUSDT",
		HigherTimeframeDataPath: filepath.Join(os.TempDir(), "absent-4h.json"),
		LowerTimeframeDataPath:  filepath.Join(os.TempDir(), "absent-15m.json"),
		Cancel:                  runCancel,
	})
	assert.NoError(t, err)
	assert.Error(t, backtest.Run(ctx))
}
