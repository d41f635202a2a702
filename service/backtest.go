package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/illiachumak/bot-liquiditysweep-sub000/backtest"
	"github.com/illiachumak/bot-liquiditysweep-sub000/database"
	"github.com/illiachumak/bot-liquiditysweep-sub000/fetch"
	"github.com/illiachumak/bot-liquiditysweep-sub000/report"
	"github.com/illiachumak/bot-liquiditysweep-sub000/shared"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// BacktestConfig represents the configuration struct for the backtest service.
type BacktestConfig struct {
	// Market is the backtested market.
	Market string
	// HigherTimeframeDataPath is the filepath to the 4 hour candle data.
	HigherTimeframeDataPath string
	// LowerTimeframeDataPath is the filepath to the 15 minute candle data.
	LowerTimeframeDataPath string
	// ClickHouseAddr is the optional clickhouse candle warehouse address.
	ClickHouseAddr string
	// ClickHouseDatabase is the clickhouse database name.
	ClickHouseDatabase string
	// ClickHouseUser is the clickhouse user.
	ClickHouseUser string
	// ClickHousePass is the clickhouse user pass.
	ClickHousePass string
	// ProfilePath is the optional filepath to the yaml strategy profile.
	ProfilePath string
	// OutputPath is the optional filepath for the json run result.
	OutputPath string
	// DatabaseEndpoint is the optional rqlite endpoint for trade persistence.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *BacktestConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("no market provided for backtest service"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}
	if cfg.ClickHouseAddr == "" {
		if cfg.HigherTimeframeDataPath == "" {
			errs = errors.Join(errs, fmt.Errorf("higher timeframe data filepath cannot be an empty string"))
		}
		if cfg.LowerTimeframeDataPath == "" {
			errs = errors.Join(errs, fmt.Errorf("lower timeframe data filepath cannot be an empty string"))
		}
	}

	return errs
}

// Backtest represents a dual timeframe gap backtesting service.
type Backtest struct {
	cfg     *BacktestConfig
	profile *Profile
	run     *backtest.Run
	logger  *zerolog.Logger
}

// NewBacktest initializes a new backtest service.
func NewBacktest(cfg *BacktestConfig) (*Backtest, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "backtest").Logger()

	profile, err := LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("loading strategy profile: %w", err)
	}

	runLogger := logger.With().Str("component", "run").Logger()
	runCfg, err := profile.RunConfig(cfg.Market, &runLogger)
	if err != nil {
		return nil, fmt.Errorf("creating run config: %w", err)
	}

	run, err := backtest.NewRun(runCfg)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	service := &Backtest{
		cfg:     cfg,
		profile: profile,
		run:     run,
		logger:  &logger,
	}

	return service, nil
}

// newSource selects a candle source for the provided timeframe. A configured
// clickhouse address takes precedence, otherwise the file extension decides
// between the csv and json loaders.
func (b *Backtest) newSource(ctx context.Context, timeframe shared.Timeframe, path string) (fetch.Source, error) {
	if b.cfg.ClickHouseAddr != "" {
		sourceLogger := b.logger.With().Str("component", "clickhousesource").Logger()
		return fetch.NewClickHouseSource(ctx, &fetch.ClickHouseSourceConfig{
			Market:    b.cfg.Market,
			Timeframe: timeframe,
			Addr:      b.cfg.ClickHouseAddr,
			Database:  b.cfg.ClickHouseDatabase,
			User:      b.cfg.ClickHouseUser,
			Pass:      b.cfg.ClickHousePass,
			Logger:    &sourceLogger,
		})
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		sourceLogger := b.logger.With().Str("component", "csvsource").Logger()
		return fetch.NewCSVSource(&fetch.CSVSourceConfig{
			Market:    b.cfg.Market,
			Timeframe: timeframe,
			FilePath:  path,
			Logger:    &sourceLogger,
		}), nil
	default:
		sourceLogger := b.logger.With().Str("component", "filesource").Logger()
		return fetch.NewFileSource(&fetch.FileSourceConfig{
			Market:    b.cfg.Market,
			Timeframe: timeframe,
			FilePath:  path,
			Logger:    &sourceLogger,
		}), nil
	}
}

// fetchSeries loads the candle series for the provided timeframe.
func (b *Backtest) fetchSeries(ctx context.Context, timeframe shared.Timeframe, path string) ([]shared.Candlestick, error) {
	source, err := b.newSource(ctx, timeframe, path)
	if err != nil {
		return nil, fmt.Errorf("creating %s candle source: %w", timeframe.String(), err)
	}

	if closer, ok := source.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				b.logger.Error().Err(err).Msg("closing candle source")
			}
		}()
	}

	candles, err := source.FetchCandles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles: %w", timeframe.String(), err)
	}

	b.logger.Info().Str("timeframe", timeframe.String()).Int("candles", len(candles)).
		Msg("loaded candle series")

	return candles, nil
}

// Run executes the backtest and reports its outcome.
func (b *Backtest) Run(ctx context.Context) error {
	defer b.cfg.Cancel()

	higher, err := b.fetchSeries(ctx, shared.FourHour, b.cfg.HigherTimeframeDataPath)
	if err != nil {
		return err
	}

	lower, err := b.fetchSeries(ctx, shared.FifteenMinute, b.cfg.LowerTimeframeDataPath)
	if err != nil {
		return err
	}

	err = b.run.Execute(ctx, higher, lower)
	if err != nil {
		return fmt.Errorf("executing run: %w", err)
	}

	result := &report.Result{
		Market:  b.cfg.Market,
		Mode:    b.profile.StrategyMode,
		Summary: report.Summarize(b.run.Trades(), b.profile.InitialBalance),
		Stats:   b.run.Stats(),
		Trades:  b.run.Trades(),
	}

	result.Render(os.Stdout)

	if b.cfg.OutputPath != "" {
		err = result.WriteFile(b.cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("writing run result: %w", err)
		}

		b.logger.Info().Str("path", b.cfg.OutputPath).Msg("wrote run result")
	}

	if b.cfg.DatabaseEndpoint != "" {
		dbLogger := b.logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: b.cfg.DatabaseEndpoint,
			User:     b.cfg.DatabaseUser,
			Pass:     b.cfg.DatabasePass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}

		runID := uuid.New().String()
		err = db.PersistResult(ctx, runID, result)
		if err != nil {
			return fmt.Errorf("persisting run result: %w", err)
		}

		b.logger.Info().Str("run", runID).Msg("persisted run result")
	}

	return nil
}
