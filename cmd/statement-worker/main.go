package main

import (
	"context"
	"errors"
	"os"

	"gestmais/internal/amqp"
	"gestmais/internal/cli"
	"gestmais/internal/log"
	gsheet "gestmais/internal/sheets/google"
	"gestmais/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err == nil {
		err = cfg.ValidateStatementExport()
	}
	if err != nil {
		cli.Exit(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting statement-worker")

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	// The worker only reads, so its store never publishes.
	readCfg := *cfg
	readCfg.AMQPURL = ""
	res, err := cli.OpenBackend(ctx, &readCfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize backend", err)
	}
	defer res.Close()
	svc := cli.NewPaymentService(cfg, res, logger)

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	statements := worker.NewStatementWorker(svc, sheetsClient, logger)

	logger.Info("Consuming payment events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumePaymentRecorded(ctx, statements.HandlePaymentRecorded); err != nil &&
		!errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Statement worker stopped")
}
