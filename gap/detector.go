package gap

import (
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
)

// Detect scans candles in the index window [start, end) for three candle gap
// formations. Candle i is compared against candle i-2; the middle candle only
// matters by existing. The scan is pure and side effect free, so callers can run
// it incrementally over a small trailing window each time a candle closes.
func Detect(candles []shared.Candlestick, start int, end int) []*Gap {
	var gaps []*Gap

	if start < 0 {
		start = 0
	}
	if end > len(candles) {
		end = len(candles)
	}

	for i := start + 2; i < end; i++ {
		candle := &candles[i]
		prev2 := &candles[i-2]

		// The gap only becomes knowable once candle i closes.
		formedTime := shared.CandleCloseTime(candles, i)

		switch {
		case candle.Low > prev2.High:
			g, err := NewGap(candle.Market, candle.Timeframe, shared.Bullish,
				candle.Low, prev2.High, formedTime)
			if err == nil {
				gaps = append(gaps, g)
			}
		case candle.High < prev2.Low:
			g, err := NewGap(candle.Market, candle.Timeframe, shared.Bearish,
				prev2.Low, candle.High, formedTime)
			if err == nil {
				gaps = append(gaps, g)
			}
		}
	}

	return gaps
}
