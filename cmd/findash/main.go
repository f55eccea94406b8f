package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cache"
	"findash/internal/cli"
	apphttp "findash/internal/http"
	"findash/internal/log"
	"findash/internal/services"
	"findash/internal/summary"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid history backend", err)
	}
	store, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize history backend", err, log.FieldBackend, bcfg.Type)
	}

	// A nil *amqp.Client must not reach the interface.
	var publisher services.Publisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
		publisher = client
		logger.Info("Publishing report events", "exchange", cfg.AMQPExchange)
	}
	historySvc := services.NewHistoryService(store.Store, publisher, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Summarizer: summary.New(summary.WithFormatter(cli.Formatter(cfg))),
		Reports:    cache.NewReports(cfg.ReportCacheSize, cfg.ReportCacheTTL),
		History:    historySvc,
		Logger:     logger,
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	}()

	logger.Info("Starting findash server",
		log.FieldOperation, log.OpStartup,
		"addr", cfg.Addr(),
		log.FieldBackend, store.Type,
		"events", cfg.EventsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "addr", cfg.Addr())
	}
	<-drained

	if err := historySvc.Close(); err != nil {
		logger.Warn("History shutdown error", log.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
