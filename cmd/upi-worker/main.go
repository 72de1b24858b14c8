package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adiawaskar/smart-upi-poc/internal/cli"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/sheets"
	gsheet "github.com/adiawaskar/smart-upi-poc/internal/sheets/google"
	"github.com/adiawaskar/smart-upi-poc/internal/worker"
)

// prefetch bounds unacknowledged deliveries held by this consumer.
const prefetch = 10

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	logger.Info("Starting smart-upi worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close record store", "error", err)
		}
	}()

	// Statement export is optional.
	var statement sheets.StatementWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleStatementSheet)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		statement = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleStatementSheet)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	events, err := cli.DialAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	w := worker.NewEventWorker(backend.Store, statement)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.ConsumeWithRetry(gctx, prefetch, w.HandleTransactionCreated)
	})
	g.Go(func() error {
		// Surface a dead store early instead of failing every delivery.
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := backend.Store.Ping(gctx); err != nil {
					logger.Warn("Record store ping failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
