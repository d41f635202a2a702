package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
)

// csvColumns is the expected column count: timestamp, open, high, low, close, volume.
const csvColumns = 6

// CSVSourceConfig represents the csv candle source configuration.
type CSVSourceConfig struct {
	// Market represents the candle data market.
	Market string
	// Timeframe represents the timeframe of the candle data.
	Timeframe shared.Timeframe
	// FilePath is the filepath to the candle data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// CSVSource loads a candle series from a csv file.
type CSVSource struct {
	cfg *CSVSourceConfig
}

// Ensure the csv source implements the Source interface.
var _ Source = (*CSVSource)(nil)

// NewCSVSource initializes a new csv candle source.
func NewCSVSource(cfg *CSVSourceConfig) *CSVSource {
	return &CSVSource{cfg: cfg}
}

// parseTimestamp parses a candle timestamp from a unix value (seconds or
// milliseconds) or a formatted date string.
func parseTimestamp(field string) (time.Time, error) {
	ts, err := strconv.ParseInt(field, 10, 64)
	if err == nil {
		if ts > 1e12 {
			return time.UnixMilli(ts).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}

	dt, err := time.Parse(shared.DateLayout, field)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", field, err)
	}

	return dt, nil
}

// FetchCandles returns the chronologically ordered candle series.
func (s *CSVSource) FetchCandles(_ context.Context) ([]shared.Candlestick, error) {
	file, err := os.Open(s.cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening candle data file '%s': %v", s.cfg.FilePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv candle data: %v", err)
	}

	// Skip a header row if present.
	if len(records) > 0 {
		if _, err := strconv.ParseInt(records[0][0], 10, 64); err != nil {
			if _, err := time.Parse(shared.DateLayout, records[0][0]); err != nil {
				records = records[1:]
			}
		}
	}

	candles := make([]shared.Candlestick, 0, len(records))
	for idx, record := range records {
		if len(record) < csvColumns {
			return nil, fmt.Errorf("csv row %d has %d columns, expected %d", idx, len(record), csvColumns)
		}

		dt, err := parseTimestamp(record[0])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", idx, err)
		}

		var fields [5]float64
		for i := 0; i < 5; i++ {
			fields[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("csv row %d column %d: %w", idx, i+1, err)
			}
		}

		candle := shared.Candlestick{
			Date:      dt,
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Volume:    fields[4],
			Market:    s.cfg.Market,
			Timeframe: s.cfg.Timeframe,
		}

		if err := candle.Validate(); err != nil {
			return nil, fmt.Errorf("csv row %d: %w", idx, err)
		}

		candles = append(candles, candle)
	}

	if len(candles) < 3 {
		return nil, fmt.Errorf("insufficient candle data for %s: %d rows", s.cfg.Market, len(candles))
	}

	if err := shared.EnsureAscending(candles); err != nil {
		return nil, err
	}

	s.cfg.Logger.Info().Msgf("loaded %d %s candles for %s from %s",
		len(candles), s.cfg.Timeframe.String(), s.cfg.Market, s.cfg.FilePath)

	return candles, nil
}
