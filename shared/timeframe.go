package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing candle dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	FourHour Timeframe = iota
	FifteenMinute
)

// String stringifies the provided timeframe.
func (t *Timeframe) String() string {
	switch *t {
	case FourHour:
		return "4H"
	case FifteenMinute:
		return "15m"
	default:
		return "unknown"
	}
}

// Duration returns the wall-clock duration covered by one candle of the timeframe.
func (t *Timeframe) Duration() time.Duration {
	switch *t {
	case FourHour:
		return time.Hour * 4
	case FifteenMinute:
		return time.Minute * 15
	default:
		return 0
	}
}

// ParseTimeframe parses a timeframe from the provided string.
func ParseTimeframe(str string) (Timeframe, error) {
	switch str {
	case "4H", "4h":
		return FourHour, nil
	case "15m", "15M":
		return FifteenMinute, nil
	default:
		return 0, fmt.Errorf("unknown timeframe: %s", str)
	}
}
