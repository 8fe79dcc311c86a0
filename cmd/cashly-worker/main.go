package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"cashly/internal/amqp"
	"cashly/internal/cli"
	"cashly/internal/config"
	"cashly/internal/log"
	"cashly/internal/sheets"
	gsheet "cashly/internal/sheets/google"
	memledger "cashly/internal/sheets/memory"
	"cashly/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(cli.SetupLogger(nil, log.ComponentWorker), "Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		cli.Exit(logger, "Worker cannot start", errors.New("AMQP_URL is required"))
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to this process; ledger rows will only carry ids")
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	// The worker only consumes, so the backend's publisher stays disabled.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	backend, err := cli.OpenBackend(ctx, logger, &storeCfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Cleanup()

	ledger, err := openLedger(ctx, logger, cfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(backend.Store, ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming change events", "queue", cfg.AMQPQueue)
		return client.ConsumeChanges(gctx, syncWorker.HandleChange)
	})
	return g.Wait()
}

func openLedger(ctx context.Context, logger *log.Logger, cfg *config.Config) (sheets.LedgerWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory ledger")
		return memledger.New(), nil
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets ledger initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
