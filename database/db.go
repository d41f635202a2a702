// Package database persists completed trades and run summaries to rqlite.
package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/illiachumak/bot-liquiditysweep-sub000/backtest"
	"github.com/illiachumak/bot-liquiditysweep-sub000/report"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createTradeTableSQL = "CREATE TABLE IF NOT EXISTS trade (id TEXT PRIMARY KEY, runid TEXT, gapid TEXT, market TEXT, direction TEXT, entryprice REAL, entrytime INTEGER, exitprice REAL, exittime INTEGER, exitreason TEXT, size REAL, pnl REAL, pnlpct REAL, fees REAL, risk REAL)"
	createRunTableSQL   = "CREATE TABLE IF NOT EXISTS run (id TEXT PRIMARY KEY, market TEXT, mode TEXT, totaltrades INTEGER, winrate REAL, totalpnl REAL, maxdrawdown REAL, finalbalance REAL, expectancy REAL, createdon INTEGER)"
	persistTradeSQL     = "INSERT INTO trade(id, runid, gapid, market, direction, entryprice, entrytime, exitprice, exittime, exitreason, size, pnl, pnlpct, fees, risk) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
	persistRunSQL       = "INSERT INTO run(id, market, mode, totaltrades, winrate, totalpnl, maxdrawdown, finalbalance, expectancy, createdon) VALUES(?,?,?,?,?,?,?,?,?,?)"
)

// TradeStorer defines the requirements for storing simulation results.
type TradeStorer interface {
	// PersistResult stores the provided run result to the database.
	PersistResult(ctx context.Context, runID string, result *report.Result) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the TradeStorer interface.
var _ TradeStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createTradeTableSQL},
		{SQL: createRunTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// persistTrade stores the provided completed trade to the database.
func (db *Database) persistTrade(ctx context.Context, runID string, trade *backtest.Trade) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistTradeSQL,
			PositionalParams: []any{trade.ID, runID, trade.GapID, trade.Market, trade.Direction,
				trade.EntryPrice, trade.EntryTime.Unix(), trade.ExitPrice, trade.ExitTime.Unix(),
				trade.ExitReason.String(), trade.Size, trade.PNL, trade.PNLPercent, trade.Fees,
				trade.Risk},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		db.cfg.Logger.Error().Msgf("unexpected trade persistence state: %s", spew.Sdump(trade))
		return fmt.Errorf("persisting trade %s: %d -> %s", trade.ID, idx, errStr)
	}

	return nil
}

// PersistResult stores the provided run result to the database.
func (db *Database) PersistResult(ctx context.Context, runID string, result *report.Result) error {
	for _, trade := range result.Trades {
		err := db.persistTrade(ctx, runID, trade)
		if err != nil {
			return err
		}
	}

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistRunSQL,
			PositionalParams: []any{runID, result.Market, result.Mode, result.Summary.TotalTrades,
				result.Summary.WinRate, result.Summary.TotalPNL, result.Summary.MaxDrawdown,
				result.Summary.FinalBalance, result.Summary.Expectancy, time.Now().Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting run %s: %d -> %s", runID, idx, errStr)
	}

	return nil
}
