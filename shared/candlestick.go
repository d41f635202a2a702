package shared

import (
	"fmt"
	"time"
)

// Sentiment represents the candlestick or gap sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s *Sentiment) String() string {
	switch *s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// Validate asserts the candlestick describes a coherent price range.
func (c *Candlestick) Validate() error {
	if c.Low > c.High {
		return fmt.Errorf("candle low (%f) exceeds high (%f)", c.Low, c.High)
	}
	if c.Open < c.Low || c.Open > c.High {
		return fmt.Errorf("candle open (%f) outside range [%f, %f]", c.Open, c.Low, c.High)
	}
	if c.Close < c.Low || c.Close > c.High {
		return fmt.Errorf("candle close (%f) outside range [%f, %f]", c.Close, c.Low, c.High)
	}

	return nil
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// CandleCloseTime returns the close time of the candle at idx. A candle's timestamp marks
// its open; its contents are only knowable once it closes, which is the next candle's open.
// The most recent candle has no successor so its close is approximated from the timeframe
// duration.
func CandleCloseTime(candles []Candlestick, idx int) time.Time {
	if idx+1 < len(candles) {
		return candles[idx+1].Date
	}

	return candles[idx].Date.Add(candles[idx].Timeframe.Duration())
}
