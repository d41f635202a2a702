// Package report aggregates completed trades into summary performance statistics.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/illiachumak/bot-liquiditysweep-sub000/backtest"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary represents aggregate performance statistics for a trade log.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	ExpiredOrders int     `json:"expired_orders"`
	WinRate       float64 `json:"win_rate"`
	TotalPNL      float64 `json:"total_pnl"`
	TotalPNLPct   float64 `json:"total_pnl_pct"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	// ProfitFactor is +Inf when there are no losing trades.
	ProfitFactor float64 `json:"profit_factor"`
	// MaxDrawdown is the largest peak to trough decline of the balance curve,
	// as a fraction of the peak.
	MaxDrawdown  float64 `json:"max_drawdown"`
	FinalBalance float64 `json:"final_balance"`
	// Expectancy is the expected R multiple per trade.
	Expectancy float64 `json:"expectancy"`
	TotalFees  float64 `json:"total_fees"`
}

// MarshalJSON renders the summary, substituting an infinite profit factor with
// null since JSON has no representation for it.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	wrapper := struct {
		alias
		ProfitFactor *float64 `json:"profit_factor"`
	}{alias: alias(s)}

	if !math.IsInf(s.ProfitFactor, 1) {
		wrapper.ProfitFactor = &s.ProfitFactor
	}

	return json.Marshal(wrapper)
}

// Result is the JSON serializable outcome of one simulation run.
type Result struct {
	Market  string            `json:"market"`
	Mode    string            `json:"strategy_mode"`
	Summary Summary           `json:"summary"`
	Stats   backtest.Stats    `json:"stats"`
	Trades  []*backtest.Trade `json:"trades"`
}

// Summarize aggregates the provided chronological trade log. Expired orders are
// carried in the log but excluded from performance metrics. A nil or empty log
// produces a graceful zero summary.
func Summarize(trades []*backtest.Trade, initialBalance float64) Summary {
	summary := Summary{FinalBalance: initialBalance}

	var filled []*backtest.Trade
	for _, trade := range trades {
		if trade.ExitReason == shared.Expired {
			summary.ExpiredOrders++
			continue
		}
		filled = append(filled, trade)
	}

	if len(filled) == 0 {
		return summary
	}

	var totalWins, totalLosses float64
	var sumWinR, sumLossR float64

	for _, trade := range filled {
		summary.TotalPNL += trade.PNL
		summary.TotalFees += trade.Fees

		r := 0.0
		if trade.Risk > 0 {
			r = trade.PNL / trade.Risk
		}

		if trade.PNL > 0 {
			summary.WinningTrades++
			totalWins += trade.PNL
			sumWinR += r
		} else {
			summary.LosingTrades++
			totalLosses += -trade.PNL
			sumLossR += -r
		}
	}

	summary.TotalTrades = len(filled)
	summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades)
	summary.TotalPNLPct = summary.TotalPNL / initialBalance * 100
	summary.FinalBalance = initialBalance + summary.TotalPNL

	if summary.WinningTrades > 0 {
		summary.AvgWin = totalWins / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		summary.AvgLoss = -totalLosses / float64(summary.LosingTrades)
	}

	switch {
	case totalLosses > 0:
		summary.ProfitFactor = totalWins / totalLosses
	default:
		summary.ProfitFactor = math.Inf(1)
	}

	summary.MaxDrawdown = maxDrawdown(filled, initialBalance)
	summary.Expectancy = expectancy(summary, sumWinR, sumLossR)

	return summary
}

// maxDrawdown walks the cumulative balance curve and returns the largest peak to
// trough decline as a fraction of the peak. Always non-negative.
func maxDrawdown(trades []*backtest.Trade, initialBalance float64) float64 {
	balance := initialBalance
	peak := initialBalance
	var maxDD float64

	for _, trade := range trades {
		balance += trade.PNL
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			dd := (peak - balance) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// expectancy computes the expected R multiple per trade.
func expectancy(summary Summary, sumWinR float64, sumLossR float64) float64 {
	var avgWinR, avgLossR float64
	if summary.WinningTrades > 0 {
		avgWinR = sumWinR / float64(summary.WinningTrades)
	}
	if summary.LosingTrades > 0 {
		avgLossR = sumLossR / float64(summary.LosingTrades)
	}

	lossRate := 1 - summary.WinRate

	return avgWinR*summary.WinRate - avgLossR*lossRate
}

// WriteFile persists the result as indented JSON at the provided path.
func (r *Result) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("writing result to %s: %w", path, err)
	}

	return nil
}

// Render writes a human readable summary to the provided writer.
func (r *Result) Render(w io.Writer) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "==== %s (%s) ====\n", r.Market, r.Mode)
	p.Fprintf(w, "Trades:         %d (%d wins / %d losses, %d expired orders)\n",
		r.Summary.TotalTrades, r.Summary.WinningTrades, r.Summary.LosingTrades, r.Summary.ExpiredOrders)
	p.Fprintf(w, "Win rate:       %.2f%%\n", r.Summary.WinRate*100)
	p.Fprintf(w, "Total PnL:      %.2f (%.2f%%)\n", r.Summary.TotalPNL, r.Summary.TotalPNLPct)
	p.Fprintf(w, "Avg win/loss:   %.2f / %.2f\n", r.Summary.AvgWin, r.Summary.AvgLoss)
	if math.IsInf(r.Summary.ProfitFactor, 1) {
		p.Fprintf(w, "Profit factor:  inf\n")
	} else {
		p.Fprintf(w, "Profit factor:  %.2f\n", r.Summary.ProfitFactor)
	}
	p.Fprintf(w, "Max drawdown:   %.2f%%\n", r.Summary.MaxDrawdown*100)
	p.Fprintf(w, "Expectancy:     %.2fR\n", r.Summary.Expectancy)
	p.Fprintf(w, "Fees paid:      %.2f\n", r.Summary.TotalFees)
	p.Fprintf(w, "Final balance:  %.2f\n", r.Summary.FinalBalance)
}
