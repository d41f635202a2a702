// Package fetch loads historical candle series from files and storage backends.
// Sources validate and order the data before the engine ever sees it.
package fetch

import (
	"context"
	"fmt"
	"os"

	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Source defines the requirements for loading a candle series.
type Source interface {
	// FetchCandles returns the chronologically ordered candle series.
	FetchCandles(ctx context.Context) ([]shared.Candlestick, error)
}

// FileSourceConfig represents the json file candle source configuration.
type FileSourceConfig struct {
	// Market represents the candle data market.
	Market string
	// Timeframe represents the timeframe of the candle data.
	Timeframe shared.Timeframe
	// FilePath is the filepath to the candle data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// FileSource loads a candle series from a json file.
type FileSource struct {
	cfg *FileSourceConfig
}

// Ensure the file source implements the Source interface.
var _ Source = (*FileSource)(nil)

// NewFileSource initializes a new json file candle source.
func NewFileSource(cfg *FileSourceConfig) *FileSource {
	return &FileSource{cfg: cfg}
}

// FetchCandles returns the chronologically ordered candle series.
func (s *FileSource) FetchCandles(_ context.Context) ([]shared.Candlestick, error) {
	readb, err := os.ReadFile(s.cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("reading candle data from file with path '%s': %v", s.cfg.FilePath, err)
	}

	data := gjson.ParseBytes(readb).Array()

	candles, err := shared.ParseCandlesticks(data, s.cfg.Market, s.cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %v", err)
	}

	s.cfg.Logger.Info().Msgf("loaded %d %s candles for %s from %s",
		len(candles), s.cfg.Timeframe.String(), s.cfg.Market, s.cfg.FilePath)

	return candles, nil
}
