package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// minCandleSeriesSize is the minimum number of candles a series must have for a
// three candle gap pattern to exist.
const minCandleSeriesSize = 3

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result, market string, timeframe Timeframe) ([]Candlestick, error) {
	if len(data) < minCandleSeriesSize {
		return nil, fmt.Errorf("insufficient candle data for %s: %d < expected minimum (%d)",
			market, len(data), minCandleSeriesSize)
	}

	candles := make([]Candlestick, 0, len(data))

	for idx := range data {
		var candle Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		candle.Market = market
		candle.Timeframe = timeframe

		dt, err := parseCandleDate(data[idx].Get("date"))
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}
		candle.Date = dt

		if err := candle.Validate(); err != nil {
			return nil, fmt.Errorf("validating candlestick at index %d: %w", idx, err)
		}

		candles = append(candles, candle)
	}

	if err := EnsureAscending(candles); err != nil {
		return nil, err
	}

	return candles, nil
}

// parseCandleDate parses a candle date from either a unix timestamp (seconds or
// milliseconds) or a formatted date string.
func parseCandleDate(result gjson.Result) (time.Time, error) {
	switch result.Type {
	case gjson.Number:
		ts := result.Int()
		// Millisecond timestamps are thirteen digits for contemporary dates.
		if ts > 1e12 {
			return time.UnixMilli(ts).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	case gjson.String:
		dt, err := time.Parse(DateLayout, result.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing date string %q: %w", result.String(), err)
		}
		return dt, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value: %s", result.Raw)
	}
}

// EnsureAscending asserts the provided candle series is strictly ordered by open time.
func EnsureAscending(candles []Candlestick) error {
	for idx := 1; idx < len(candles); idx++ {
		if !candles[idx].Date.After(candles[idx-1].Date) {
			return fmt.Errorf("candle series out of order at index %d: %s >= %s",
				idx, candles[idx-1].Date, candles[idx].Date)
		}
	}

	return nil
}
