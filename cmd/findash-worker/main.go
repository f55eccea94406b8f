package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"findash/internal/amqp"
	"findash/internal/cli"
	"findash/internal/log"
	"findash/internal/sheets"
	gsheet "findash/internal/sheets/google"
	"findash/internal/storage"
	"findash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required: the worker consumes report events")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite archive", err, "path", cfg.SQLiteDBPath)
	}
	defer repo.Close()

	var exporter sheets.SummaryExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Warn("Could not write sheet header", log.FieldError, err.Error())
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled, archiving only")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer consumer.Close()

	w := worker.NewHistoryWorker(repo, exporter, cfg.SyncBatchSize, logger)

	if n, err := w.ProcessPending(ctx); err != nil {
		logger.Error("Startup export pass failed", log.FieldError, err.Error())
	} else if n > 0 {
		logger.Info("Startup export pass completed", "exported", n)
	}

	logger.Info("Starting findash-worker",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeReportComputed(gctx, w.HandleReportComputed)
	})
	g.Go(func() error {
		return w.RunTicker(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Worker stopped with error", err)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
