package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/illiachumak/bot-liquiditysweep-sub000/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backtestCfg := service.BacktestConfig{
		Market:                  cfg.Market,
		HigherTimeframeDataPath: cfg.HigherTimeframeDataPath,
		LowerTimeframeDataPath:  cfg.LowerTimeframeDataPath,
		ClickHouseAddr:          cfg.ClickHouseAddr,
		ClickHouseDatabase:      cfg.ClickHouseDatabase,
		ClickHouseUser:          cfg.ClickHouseUser,
		ClickHousePass:          cfg.ClickHousePass,
		ProfilePath:             cfg.ProfilePath,
		OutputPath:              cfg.OutputPath,
		DatabaseEndpoint:        cfg.DatabaseEndpoint,
		DatabaseUser:            cfg.DatabaseUser,
		DatabasePass:            cfg.DatabasePass,
		Cancel:                  cancel,
	}
	backtest, err := service.NewBacktest(&backtestCfg)
	if err != nil {
		log.Printf("creating backtest service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	err = backtest.Run(ctx)
	if err != nil {
		log.Printf("running backtest: %v", err)
	}
}
