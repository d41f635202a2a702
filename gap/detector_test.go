package gap

import (
	"testing"
	"time"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/peterldowns/testy/assert"
)

// fourHourSeries builds a 4H candle series starting at a fixed instant.
func fourHourSeries(t *testing.T, ohlc [][4]float64) []shared.Candlestick {
	t.Helper()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]shared.Candlestick, 0, len(ohlc))
	for idx, fields := range ohlc {
		candle := shared.Candlestick{
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Date:      start.Add(time.Duration(idx) * time.Hour * 4),
			Market:    "BTCUSDT",
			Timeframe: shared.FourHour,
		}
		assert.NoError(t, candle.Validate())
		candles = append(candles, candle)
	}

	return candles
}

func TestDetectBullishGap(t *testing.T) {
	// The third candle's low clearing the first candle's high leaves a bullish
	// imbalance between them.
	candles := fourHourSeries(t, [][4]float64{
		{95, 100, 90, 98},
		{98, 105, 95, 104},
		{112, 115, 110, 114},
		{114, 118, 112, 116},
	})

	gaps := Detect(candles, 0, 3)
	assert.Equal(t, len(gaps), 1)

	g := gaps[0]
	assert.Equal(t, g.Sentiment, shared.Bullish)
	assert.Equal(t, g.Bottom, float64(100))
	assert.Equal(t, g.Top, float64(110))
	// The gap becomes knowable when its third candle closes, which is the next
	// candle's open.
	assert.Equal(t, g.FormedTime, candles[3].Date)
}

func TestDetectBearishGap(t *testing.T) {
	candles := fourHourSeries(t, [][4]float64{
		{112, 115, 110, 111},
		{110, 112, 100, 101},
		{98, 100, 90, 92},
		{92, 95, 88, 90},
	})

	gaps := Detect(candles, 0, 3)
	assert.Equal(t, len(gaps), 1)

	g := gaps[0]
	assert.Equal(t, g.Sentiment, shared.Bearish)
	assert.Equal(t, g.Bottom, float64(100))
	assert.Equal(t, g.Top, float64(110))
}

func TestDetectNoGap(t *testing.T) {
	// Overlapping candle ranges leave no imbalance.
	candles := fourHourSeries(t, [][4]float64{
		{95, 100, 90, 98},
		{98, 105, 95, 104},
		{104, 108, 99, 106},
	})

	gaps := Detect(candles, 0, 3)
	assert.Equal(t, len(gaps), 0)
}

func TestDetectClampsBounds(t *testing.T) {
	candles := fourHourSeries(t, [][4]float64{
		{95, 100, 90, 98},
		{98, 105, 95, 104},
		{112, 115, 110, 114},
	})

	// Ensure out of range windows are clamped rather than panicking.
	gaps := Detect(candles, -10, 50)
	assert.Equal(t, len(gaps), 1)

	// Ensure an empty window yields nothing.
	gaps = Detect(candles, 2, 2)
	assert.Equal(t, len(gaps), 0)
}
