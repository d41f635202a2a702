package fetch

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
)

// selectCandlesSQL fetches an ordered candle series for one symbol and interval.
const selectCandlesSQL = `
	SELECT open_time_ms, open, high, low, close, volume
	FROM candles
	WHERE symbol = ? AND interval = ?
	ORDER BY open_time_ms ASC`

// ClickHouseSourceConfig represents the clickhouse candle source configuration.
type ClickHouseSourceConfig struct {
	// Market represents the candle data market.
	Market string
	// Timeframe represents the timeframe of the candle data.
	Timeframe shared.Timeframe
	// Addr is the clickhouse server address.
	Addr string
	// Database is the clickhouse database name.
	Database string
	// User is the clickhouse user.
	User string
	// Pass is the clickhouse user pass.
	Pass string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// ClickHouseSource loads a candle series from a clickhouse candle warehouse.
type ClickHouseSource struct {
	cfg  *ClickHouseSourceConfig
	conn clickhouse.Conn
}

// Ensure the clickhouse source implements the Source interface.
var _ Source = (*ClickHouseSource)(nil)

// NewClickHouseSource initializes a new clickhouse candle source.
func NewClickHouseSource(ctx context.Context, cfg *ClickHouseSourceConfig) (*ClickHouseSource, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Pass,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	return &ClickHouseSource{
		cfg:  cfg,
		conn: conn,
	}, nil
}

// FetchCandles returns the chronologically ordered candle series.
func (s *ClickHouseSource) FetchCandles(ctx context.Context) ([]shared.Candlestick, error) {
	rows, err := s.conn.Query(ctx, selectCandlesSQL, s.cfg.Market, s.cfg.Timeframe.String())
	if err != nil {
		return nil, fmt.Errorf("querying candles for %s: %w", s.cfg.Market, err)
	}
	defer rows.Close()

	var candles []shared.Candlestick
	for rows.Next() {
		var openTimeMs uint64
		var candle shared.Candlestick

		err = rows.Scan(&openTimeMs, &candle.Open, &candle.High, &candle.Low,
			&candle.Close, &candle.Volume)
		if err != nil {
			return nil, fmt.Errorf("scanning candle row: %w", err)
		}

		candle.Date = time.UnixMilli(int64(openTimeMs)).UTC()
		candle.Market = s.cfg.Market
		candle.Timeframe = s.cfg.Timeframe

		if err := candle.Validate(); err != nil {
			return nil, fmt.Errorf("validating candle at %s: %w", candle.Date, err)
		}

		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candle rows: %w", err)
	}

	if len(candles) < 3 {
		return nil, fmt.Errorf("insufficient candle data for %s: %d rows", s.cfg.Market, len(candles))
	}

	if err := shared.EnsureAscending(candles); err != nil {
		return nil, err
	}

	s.cfg.Logger.Info().Msgf("loaded %d %s candles for %s from clickhouse",
		len(candles), s.cfg.Timeframe.String(), s.cfg.Market)

	return candles, nil
}

// Close releases the clickhouse connection.
func (s *ClickHouseSource) Close() error {
	return s.conn.Close()
}
